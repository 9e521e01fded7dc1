// Package imagecodec turns raw camera output into the compact payload kept in
// the local store and back.
//
// Encoding is two-stage: a lossy JPEG re-encode with downscaling, then zlib
// at maximum level. Payloads are always stored compressed.
package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // регистрация декодера GIF
	"image/jpeg"
	_ "image/png" // регистрация декодера PNG
	"io"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/image/draw"
)

const (
	// DefaultMaxDimension ограничение на длинную сторону после масштабирования
	DefaultMaxDimension = 1280
	// DefaultQuality качество JPEG (0.5 в терминах камеры)
	DefaultQuality = 50
)

// Options настраивает стадии кодирования
type Options struct {
	MaxDimension int // 0 отключает масштабирование
	Quality      int // 1..100
	Level        int // уровень zlib
}

// DefaultOptions возвращает настройки по умолчанию
func DefaultOptions() Options {
	return Options{
		MaxDimension: DefaultMaxDimension,
		Quality:      DefaultQuality,
		Level:        zlib.BestCompression,
	}
}

// Codec кодирует и декодирует payload изображений
type Codec struct {
	opts Options
}

// New создаёт Codec; нулевые поля заменяются значениями по умолчанию
func New(opts Options) *Codec {
	def := DefaultOptions()
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = def.Quality
	}
	if opts.MaxDimension < 0 {
		opts.MaxDimension = def.MaxDimension
	}
	if opts.Level == 0 {
		opts.Level = def.Level
	}
	return &Codec{opts: opts}
}

// Encode compresses raw image bytes into a storable payload.
// Empty input yields a nil payload. Input that is not a decodable image
// skips the lossy stage and is compressed as is.
func (c *Codec) Encode(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	data := raw
	if jpg, err := c.reencode(raw); err == nil {
		data = jpg
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, c.opts.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create compressor: %v", ErrCodec, err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("%w: failed to compress: %v", ErrCodec, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: failed to finish compression: %v", ErrCodec, err)
	}

	return buf.Bytes(), nil
}

// Decode restores the image bytes from a payload. Corrupt, truncated or
// padded payloads fail with ErrCodec and no bytes are returned.
func (c *Codec) Decode(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	br := bytes.NewReader(payload)
	zr, err := zlib.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid header: %v", ErrCodec, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decompress: %v", ErrCodec, err)
	}
	if br.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after stream", ErrCodec, br.Len())
	}

	return out, nil
}

// reencode decodes raw, downscales it and writes it back as JPEG.
func (c *Codec) reencode(raw []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	img := c.resize(src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.opts.Quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Codec) resize(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	limit := c.opts.MaxDimension
	if limit == 0 || (w <= limit && h <= limit) {
		return src
	}

	nw, nh := limit, limit
	if w >= h {
		nh = max(1, h*limit/w)
	} else {
		nw = max(1, w*limit/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
