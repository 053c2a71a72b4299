package main

// Exit codes
const (
	ExitSuccess       = 0  // Success, including "nothing to do"
	ExitError         = 1  // General error (invalid arguments, runtime failure)
	ExitConfigError   = 2  // Configuration file missing or invalid
	ExitPlotNoOutput  = 20 // --plot given without --output
	ExitBadStep       = 30 // Step expression with unknown origin
	ExitBadRule       = 40 // Malformed selection rule
	ExitMissingInput  = 50 // Input path does not exist or glob matches nothing
	ExitDataIntegrity = 60 // Conflicting records (bibkey conflict, id mismatch)
)
