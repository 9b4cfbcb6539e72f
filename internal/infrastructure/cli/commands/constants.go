package commands

import "time"

// CLI-specific constants
const (
	// DefaultEditorCommand is the default editor command
	DefaultEditorCommand = "vi"

	// DefaultHistoryLimit bounds `history list`.
	DefaultHistoryLimit = 20

	// TimestampFormat is used when printing history entries.
	TimestampFormat = "2006-01-02 15:04:05"

	// DefaultOpenTimeout bounds opening a page before the panel starts.
	DefaultOpenTimeout = 30 * time.Second
)

// Error messages
const (
	ErrKeyRequired         = "--key is required"
	ErrWhitelistEntryEmpty = "whitelist entry cannot be empty"
	ErrPageRequired        = "a page URL is required (or --window and --host with --daemon)"
)

// Success messages
const (
	MsgNoDifferencesFromDefault = "No differences from default settings."
	MsgNoHistoryRecorded        = "No history recorded yet."
	MsgWhitelistEmpty           = "Whitelist is empty."
	MsgHistoryCleared           = "History cleared."
	MsgAborted                  = "Aborted."
)
