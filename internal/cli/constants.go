package cli

// Default values for CLI flags and output.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2

	// ExecPlaceholder is replaced by the quoted path of the decoded file in --exec commands.
	ExecPlaceholder = "{}"
)

// Output modes of the fetch command.
const (
	OutputNone  = ""
	OutputLines = "lines"
	OutputXML   = "xml"
)
