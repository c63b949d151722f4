package fixture

import (
	"regexp"
	"strings"
)

// locator recovers declaration lines from TOML text, which the decoder does
// not report. It scans forward for `name = "..."` keys in declaration order,
// so a miss keeps the previous line.
type locator struct {
	lines  []string
	cursor int
}

func newLocator(data []byte) *locator {
	return &locator{lines: strings.Split(string(data), "\n")}
}

// name finds the next `name = "value"` line and returns its 1-based number.
func (l *locator) name(value string) int {
	re := regexp.MustCompile(`^\s*name\s*=\s*["']` + regexp.QuoteMeta(value) + `["']`)
	return l.find(re)
}

// body returns the line of the first body text after the current cursor.
func (l *locator) body() int {
	line := l.find(bodyKey)
	if line == 0 {
		return 0
	}
	rest := bodyKey.ReplaceAllString(l.lines[line-1], "")
	if t := strings.TrimSpace(rest); t == `"""` || t == `'''` {
		return line + 1
	}
	return line
}

var bodyKey = regexp.MustCompile(`^\s*body\s*=\s*`)

func (l *locator) find(re *regexp.Regexp) int {
	for i := l.cursor; i < len(l.lines); i++ {
		if re.MatchString(l.lines[i]) {
			l.cursor = i
			return i + 1
		}
	}
	return 0
}

func (l *locator) current() int {
	return l.cursor + 1
}

// locate fills the Line fields of f. Types are expected in the order name,
// methods, properties, nested types.
func (l *locator) locate(f *File) {
	for i := range f.Modules {
		m := &f.Modules[i]
		m.Line = l.orCurrent(l.name(m.Name))
		for j := range m.Types {
			l.locateType(&m.Types[j])
		}
	}
}

func (l *locator) locateType(t *TypeSpec) {
	t.Line = l.orCurrent(l.name(t.Name))
	for i := range t.Methods {
		m := &t.Methods[i]
		m.Line = l.orCurrent(l.name(m.Name))
		if m.Body != "" {
			m.BodyLine = l.body()
		}
	}
	for i := range t.Properties {
		p := &t.Properties[i]
		p.Line = l.orCurrent(l.name(p.Name))
	}
	for i := range t.Nested {
		l.locateType(&t.Nested[i])
	}
}

func (l *locator) orCurrent(line int) int {
	if line == 0 {
		return l.current()
	}
	return line
}
