package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (no site, invalid config, missing template)
	ExitDataError   = 3 // Data error (bibliography failed to parse)
	ExitBrokenLinks = 4 // Link check found broken links
)
