// Package logfields defines canonical slog field names so log keys do not
// drift across packages.
package logfields

import "log/slog"

const (
	KeyRunID      = "run_id"
	KeyEntry      = "entry"
	KeyKind       = "kind"
	KeyVariant    = "variant"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Entry(name string) slog.Attr     { return slog.String(KeyEntry, name) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Variant(v string) slog.Attr      { return slog.String(KeyVariant, v) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
