package cli

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // A tool exited non-zero or a read failed
	ExitCommandError = 2 // Command error (bad flags, missing environment, bad config)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results as text, JSON or CSV.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Diagnostics; defaults to Writer
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(err error) error {
	code := GetExitCode(err)
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: err.Error()},
		})
	}
	_, werr := fmt.Fprintf(f.GetErrWriter(), "Error: %v\n", err)
	return werr
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Table is tabular command output. Records carries typed values for JSON;
// when nil, JSON rows are built from the string cells.
type Table struct {
	Header  []string
	Rows    [][]string
	Records []map[string]any
}

// Table outputs t as aligned columns, CSV, or a JSON array of objects.
func (f *OutputFormatter) Table(t Table) error {
	switch f.Format {
	case "json":
		records := t.Records
		if records == nil {
			records = make([]map[string]any, len(t.Rows))
			for i, row := range t.Rows {
				rec := make(map[string]any, len(t.Header))
				for j, h := range t.Header {
					rec[h] = row[j]
				}
				records[i] = rec
			}
		}
		return f.Success(records)

	case "csv":
		w := csv.NewWriter(f.Writer)
		if err := w.Write(t.Header); err != nil {
			return err
		}
		if err := w.WriteAll(t.Rows); err != nil {
			return err
		}
		return w.Error()

	default:
		tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
		writeRow(tw, t.Header)
		for _, row := range t.Rows {
			writeRow(tw, row)
		}
		return tw.Flush()
	}
}

func writeRow(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}

// FrameTable converts a dataframe into a Table. Floats are printed in their
// shortest form and NaN becomes null in JSON.
func FrameTable(df dataframe.DataFrame) Table {
	names := df.Names()
	n := df.Nrow()
	t := Table{
		Header:  names,
		Rows:    make([][]string, n),
		Records: make([]map[string]any, n),
	}
	for i := 0; i < n; i++ {
		t.Rows[i] = make([]string, len(names))
		t.Records[i] = make(map[string]any, len(names))
	}

	for j, name := range names {
		col := df.Col(name)
		switch col.Type() {
		case series.Int:
			vals, err := col.Int()
			if err == nil {
				for i, v := range vals {
					t.Rows[i][j] = strconv.Itoa(v)
					t.Records[i][name] = v
				}
				continue
			}
			fallthrough
		case series.Float:
			for i, v := range col.Float() {
				t.Rows[i][j] = formatFloat(v)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Records[i][name] = nil
				} else {
					t.Records[i][name] = v
				}
			}
		default:
			for i, v := range col.Records() {
				t.Rows[i][j] = v
				t.Records[i][name] = v
			}
		}
	}
	return t
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
