package cli

const usageTemplate = `
FieldKeeper Client

Usage:
  fieldkeeper [OPTIONS] COMMAND [ARGS]

Options:
  -version                Show version information
  -server URL             Server API URL (default: $FIELDKEEPER_SERVER or http://localhost:8080/api)
  -db PATH                Path to the violations database (default: fieldkeeper.db)
  -kv PATH                Path to the session/queue database (default: fieldkeeper-kv.db)
  -scratch DIR            Directory for temporary upload files
  -log-level LEVEL        debug, info, warn or error (default: warn)

Commands:
  register                Register a new account (requires network)
  login                   Login; falls back to the cached profile when offline
  logout                  Forget the current session
  status                  Show session and sync status
  add [flags]             Record a violation (-description, -lat, -lng, -image, -date)
  list [flags]            List your violations (-date YYYY-MM-DD, -lat, -lng, -radius km, -remote)
  get <id>                Show a violation
  delete [-y] <id>        Delete a violation
  sync                    Run one synchronization cycle
  watch                   Keep synchronizing every interval until interrupted

Examples:
  fieldkeeper login
  fieldkeeper add -description "Parked on crosswalk" -lat 50.45 -lng 30.52 -image photo.jpg
  fieldkeeper list -date 2025-06-01 -lat 50.45 -lng 30.52 -radius 2
  fieldkeeper -server https://reports.example.com/api sync
`

const violationListTemplate = `
=== {{ .Title }} ===

{{- if eq (len .Items) 0 }}
No violations found.
{{ else }}
Found {{ len .Items }} violation(s):
{{ range .Items }}
- {{ .Description }}
   {{- if .Remote }}
   Server ID: {{ deref .RemoteID }}
   {{- else }}
   ID:        {{ .LocalID }}
   {{- end }}
   Date:      {{ .CapturedAt.Local.Format "2006-01-02 15:04:05" }}
   Location:  {{ coord .Latitude }}, {{ coord .Longitude }}
   State:     {{ .SyncState }}
   {{- if .ImageURI }}
   Photo:     {{ image . }}
   {{- end }}
{{ end }}
{{- end }}
`

const violationTemplate = `
=== Violation {{ .LocalID }} ===

Description: {{ .Description }}
Date:        {{ .CapturedAt.Local.Format "2006-01-02 15:04:05" }}
Location:    {{ coord .Latitude }}, {{ coord .Longitude }}
State:       {{ .SyncState }}
{{- if .RemoteID }}
Server ID:   {{ deref .RemoteID }}
{{- end }}
Photo:       {{ if .ImageURI }}{{ image . }}{{ else }}none{{ end }}
`

const statusTemplate = `
=== Status ===

{{- if .Session }}
Logged in:   {{ .Session.Email }} (user {{ .Session.UserID }})
{{- if .Session.Offline }}
Mode:        offline (login verified against the cached profile)
{{- else }}
Mode:        online
{{- if not .Session.ExpiresAt.IsZero }}
Token until: {{ .Session.ExpiresAt.Local.Format "2006-01-02 15:04:05" }}
{{- end }}
{{- end }}
{{- else }}
Not logged in. Run 'fieldkeeper login'.
{{- end }}
{{ if .Pending }}
Pending violations:    {{ .Pending.Records }}
Pending deletions:     {{ .Pending.Deletions }}
Pending offline logins: {{ .Pending.OfflineLogin }}
{{- end }}
Last sync:   {{ if .LastSync.IsZero }}never{{ else }}{{ .LastSync.Local.Format "2006-01-02 15:04:05" }}{{ end }}
Sync phase:  {{ .Phase }}
`

const syncResultTemplate = `
=== Synchronization ===
{{ if .Skipped }}
Skipped: {{ .SkipReason }}
{{- else if not .Reachable }}
Server unreachable. Pending data stays on this device until the next cycle.
{{- else }}
{{- with .Push }}
Pushed:     {{ .Synced }}
{{- if .Failed }}
Failed:     {{ .Failed }} (kept for the next cycle)
{{- end }}
{{- if .Skipped }}
Not tried:  {{ .Skipped }}
{{- end }}
{{- end }}
{{- if .Pull }}
Pulled:     {{ .Pull.Fetched }}
{{- end }}
{{- if .Deletions }}
Deleted on server: {{ .Deletions.Deleted }}
{{- if .Deletions.Pending }}
Deletions waiting: {{ add .Deletions.Pending .Deletions.Failed }}
{{- end }}
{{- end }}
{{- if .Logins }}
Offline logins reported: {{ .Logins }}
{{- end }}
{{- end }}
`
