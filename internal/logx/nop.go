package logx

import "log/slog"

var discard Logger = NewSlogAdapter(slog.New(slog.DiscardHandler))

// Nop returns a Logger that drops every entry.
func Nop() Logger { return discard }
