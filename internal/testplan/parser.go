package testplan

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/antchfx/xmlquery"
)

// TreeLoader loads a staged .jmx file into an XML node tree. It is the
// external-parser collaborator boundary: implementations may fail with an
// error on malformed input but must not be relied on not to panic.
type TreeLoader interface {
	LoadTree(path string) (*xmlquery.Node, error)
}

// XMLQueryLoader is the default TreeLoader, backed by xmlquery.
type XMLQueryLoader struct{}

// LoadTree parses the file at path into an XML document tree.
func (XMLQueryLoader) LoadTree(path string) (*xmlquery.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return xmlquery.Parse(f)
}

// Result is the outcome of a parse attempt. Exactly one of the document
// tree or the error message is set; the constructors preserve that
// invariant, so callers only ever branch on IsSuccess.
type Result struct {
	tree         *xmlquery.Node
	extractedXML string
	errMessage   string
}

func success(tree *xmlquery.Node, xml string) Result {
	return Result{tree: tree, extractedXML: xml}
}

func failure(message string) Result {
	return Result{errMessage: message}
}

// IsSuccess reports whether a document tree was produced.
func (r Result) IsSuccess() bool { return r.tree != nil && r.errMessage == "" }

// Tree returns the parsed document tree, or nil on failure.
func (r Result) Tree() *xmlquery.Node { return r.tree }

// ExtractedXML returns the XML text that was parsed, or "" on failure.
func (r Result) ExtractedXML() string { return r.extractedXML }

// ErrMessage returns the human-readable failure message, or "" on success.
func (r Result) ErrMessage() string { return r.errMessage }

// Parser extracts test plan XML from response text and loads it through a
// TreeLoader collaborator. Collaborator failures are always reported as
// Result data, never escalated.
type Parser struct {
	loader TreeLoader
	logger *slog.Logger
}

// NewParser creates a Parser. A nil loader falls back to XMLQueryLoader;
// a nil logger falls back to slog.Default().
func NewParser(loader TreeLoader, logger *slog.Logger) *Parser {
	if loader == nil {
		loader = XMLQueryLoader{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{loader: loader, logger: logger}
}

// Parse extracts plan XML from content and loads it into a tree.
//
// If no plan can be extracted the loader is never invoked. Otherwise the
// XML is staged to a uniquely named temporary file, which is removed on
// every exit path, and handed to the loader.
func (p *Parser) Parse(content string) Result {
	xml, ok := Extract(content)
	if !ok {
		return failure("no valid JMeter test plan XML found in the response")
	}

	if !IsPlausible(xml) {
		// Advisory only: the loader stays the source of truth.
		p.logger.Debug("extracted XML failed plausibility check, attempting parse anyway",
			"length", len(xml))
	}

	tree, err := p.loadStaged(xml)
	if err != nil {
		return failure(fmt.Sprintf("failed to parse JMeter XML: %v", err))
	}
	return success(tree, xml)
}

// ParseFile loads a test plan directly from a .jmx file, bypassing
// extraction. The raw text is read back for round-trip diagnostics.
func (p *Parser) ParseFile(path string) Result {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return failure("file not found: " + path)
	}

	tree, err := p.loadTree(path)
	if err != nil {
		return failure(fmt.Sprintf("failed to load JMeter file: %v", err))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return failure(fmt.Sprintf("failed to load JMeter file: %v", err))
	}
	return success(tree, string(raw))
}

// loadStaged writes xml to a collision-free temporary file and loads it.
func (p *Parser) loadStaged(xml string) (tree *xmlquery.Node, err error) {
	f, err := os.CreateTemp("", "jmxpilot-*.jmx")
	if err != nil {
		return nil, fmt.Errorf("creating staging file: %w", err)
	}
	path := f.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil {
			p.logger.Warn("removing staging file", "path", path, "error", rmErr)
		}
	}()

	if _, err = f.WriteString(xml); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing staging file: %w", err)
	}
	if err = f.Close(); err != nil {
		return nil, fmt.Errorf("closing staging file: %w", err)
	}

	return p.loadTree(path)
}

// loadTree invokes the collaborator inside a recover boundary so a panicking
// loader surfaces as an error instead of killing the caller.
func (p *Parser) loadTree(path string) (tree *xmlquery.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = fmt.Errorf("tree loader panicked: %v", r)
		}
	}()
	return p.loader.LoadTree(path)
}
