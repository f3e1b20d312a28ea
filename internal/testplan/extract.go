// Package testplan turns free-form assistant responses into loadable JMeter
// test plans. It locates embedded plan XML (fenced code blocks or raw
// inline markup), performs a cheap structural plausibility check, discovers
// references to .jmx files on disk, and loads extracted content through an
// injected XML tree loader.
package testplan

import (
	"regexp"
	"strings"
)

const (
	// rootOpenTag is the opening tag of a JMeter test plan document.
	rootOpenTag = "<jmeterTestPlan"

	// rootCloseTag is the matching closing tag.
	rootCloseTag = "</jmeterTestPlan>"

	// containerTag is the mandatory hashTree container every plan carries.
	containerTag = "<hashTree>"

	// xmlDeclaration is prepended to raw inline plans that lack a prologue.
	xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`
)

var (
	// codeBlockPattern matches fenced code blocks, optionally tagged xml.
	codeBlockPattern = regexp.MustCompile("(?is)```(?:xml)?\\s*(.*?)```")

	// rawPlanPattern matches an inline plan span, non-greedy to the first
	// closing root tag. The root tag never reappears at depth, so the
	// shortest span is always the complete document. An immediately
	// preceding XML declaration is included so it is not duplicated.
	rawPlanPattern = regexp.MustCompile(`(?s)(?:<\?xml[^?]*\?>\s*)?<jmeterTestPlan[^>]*>.*?</jmeterTestPlan>`)
)

// Extract locates JMeter test plan XML embedded in text.
//
// Fenced code blocks are tried first, in order of appearance: the first
// block whose content contains the plan root tag wins, trimmed of
// surrounding whitespace. Blocks without the root tag are skipped. If no
// block qualifies, the raw text is scanned for an inline root-to-closing
// span. Either way the result carries an XML declaration — one is
// prepended if absent — so extracted output is canonical and re-extracting
// it yields the same text.
//
// Returns ("", false) for empty, blank, or plan-free input.
func Extract(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	for _, match := range codeBlockPattern.FindAllStringSubmatch(text, -1) {
		block := strings.TrimSpace(match[1])
		if strings.Contains(block, rootOpenTag) {
			return withDeclaration(block), true
		}
	}

	if span := rawPlanPattern.FindString(text); span != "" {
		return withDeclaration(span), true
	}

	return "", false
}

// withDeclaration prepends the standard XML declaration unless the document
// already starts with one.
func withDeclaration(doc string) string {
	if strings.HasPrefix(doc, "<?xml") {
		return doc
	}
	return xmlDeclaration + "\n" + doc
}

// ContainsTestPlan reports whether Extract would find a plan in text.
func ContainsTestPlan(text string) bool {
	_, ok := Extract(text)
	return ok
}

// IsPlausible is a shallow structural check that text looks like a JMeter
// test plan: non-blank, has the root opening and closing tags, and at least
// one hashTree container. It exists to short-circuit obviously wrong input
// before a full parse, not to replace it.
func IsPlausible(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	return strings.Contains(text, rootOpenTag) &&
		strings.Contains(text, rootCloseTag) &&
		strings.Contains(text, containerTag)
}
