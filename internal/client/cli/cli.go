// Package cli is the command-line shell around the offline-first violation
// store: it reads input, calls the data, auth and sync services and renders
// their results.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/iudanet/fieldkeeper/internal/client/auth"
	"github.com/iudanet/fieldkeeper/internal/client/data"
	"github.com/iudanet/fieldkeeper/internal/client/iocli"
	"github.com/iudanet/fieldkeeper/internal/client/sync"
)

type Cli struct {
	io          iocli.IO
	authService auth.Service
	dataService data.Service
	syncService sync.Service
	runner      *sync.Runner
}

func New(io iocli.IO, authService auth.Service, dataService data.Service, syncService sync.Service) *Cli {
	return &Cli{
		io:          io,
		authService: authService,
		dataService: dataService,
		syncService: syncService,
	}
}

var templateFuncs = template.FuncMap{
	"coord": func(v float64) string {
		return strconv.FormatFloat(v, 'f', 6, 64)
	},
	"deref": func(v *int64) string {
		if v == nil {
			return "-"
		}
		return strconv.FormatInt(*v, 10)
	},
	"image": imageLabel,
	"add": func(a, b int) int {
		return a + b
	},
}

// imageLabel сокращает data URI: в терминале полезен только размер
func imageLabel(v *data.ViolationView) string {
	if strings.HasPrefix(v.ImageURI, "data:") {
		mime, _, _ := strings.Cut(strings.TrimPrefix(v.ImageURI, "data:"), ";")
		return fmt.Sprintf("stored on device (%s, %d bytes compressed)", mime, len(v.Image.Payload))
	}
	return v.ImageURI
}

// render выводит шаблон в c.io
func (c *Cli) render(name, text string, value any) error {
	tmpl, err := template.New(name).Funcs(templateFuncs).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	if err := tmpl.Execute(c.io, value); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}

// PrintUsage выводит справку
func PrintUsage(io iocli.IO) {
	io.Printf("%s", strings.TrimPrefix(usageTemplate, "\n"))
}
