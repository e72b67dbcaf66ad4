package alert

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoRule is returned by LoadRule when the file has no complete rule for the symbol.
var ErrNoRule = errors.New("no alert rule for symbol")

// Rule is a lower/upper price threshold pair for one symbol.
type Rule struct {
	Symbol string  `yaml:"symbol"`
	Lower  float64 `yaml:"lower"`
	Upper  float64 `yaml:"upper"`
}

// LoadRule reads the rules file at path and returns the rule for symbol.
// Files ending in .yaml or .yml are YAML; anything else uses the markdown
// list format understood by ParseRules.
func LoadRule(path, symbol string) (Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return Rule{}, err
	}
	defer f.Close()

	var rules []Rule
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		rules, err = ParseYAMLRules(f)
	default:
		rules, err = ParseRules(f)
	}
	if err != nil {
		return Rule{}, fmt.Errorf("parse %s: %w", path, err)
	}

	rule, ok := FindRule(rules, symbol)
	if !ok {
		return Rule{}, fmt.Errorf("%w %s in %s", ErrNoRule, symbol, path)
	}
	return rule, nil
}

// FindRule returns the first rule whose symbol matches, ignoring case.
func FindRule(rules []Rule, symbol string) (Rule, bool) {
	for _, r := range rules {
		if strings.EqualFold(r.Symbol, symbol) {
			return r, true
		}
	}
	return Rule{}, false
}

// ParseRules parses the markdown rules format:
//
//	- BTCUSDT
//	  - less
//	    - 60000
//	  - more
//	    - 70000
//
// A block opens at a "- SYMBOL" line in column 0 and runs until the next one.
// Inside a block, "less" sets the lower bound and "more" the upper bound. The
// value is given either on the same line ("less: 60000") or on the next
// non-empty line, optionally as a "- " list item. Blocks that do not end up
// with both bounds are skipped.
func ParseRules(r io.Reader) ([]Rule, error) {
	var (
		rules  []Rule
		cur    *ruleBlock
		expect string
	)

	flush := func() {
		if cur != nil && cur.hasLower && cur.hasUpper {
			rules = append(rules, Rule{Symbol: cur.symbol, Lower: cur.lower, Upper: cur.upper})
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), " \t\r")
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(raw, "- ") {
			flush()
			fields := strings.Fields(raw[2:])
			if len(fields) == 0 {
				cur = nil
				continue
			}
			cur = &ruleBlock{symbol: strings.ToUpper(fields[0])}
			expect = ""
			continue
		}
		if cur == nil {
			continue
		}

		item := strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if expect != "" {
			key := expect
			expect = ""
			if v, err := strconv.ParseFloat(item, 64); err == nil {
				cur.set(key, v)
				continue
			}
		}

		key, rest := splitKeyword(item)
		switch {
		case key == "":
		case rest == "":
			expect = key
		default:
			if v, err := strconv.ParseFloat(rest, 64); err == nil {
				cur.set(key, v)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return rules, nil
}

type ruleBlock struct {
	symbol   string
	lower    float64
	upper    float64
	hasLower bool
	hasUpper bool
}

func (b *ruleBlock) set(key string, v float64) {
	switch key {
	case "less":
		b.lower, b.hasLower = v, true
	case "more":
		b.upper, b.hasUpper = v, true
	}
}

// splitKeyword recognises "less" / "more" at the start of item and returns the
// remainder with an optional ':' removed.
func splitKeyword(item string) (key, rest string) {
	lower := strings.ToLower(item)
	for _, kw := range []string{"less", "more"} {
		if !strings.HasPrefix(lower, kw) {
			continue
		}
		rest = item[len(kw):]
		if rest != "" && rest[0] != ':' && rest[0] != ' ' && rest[0] != '\t' {
			continue // e.g. "lessons"
		}
		rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), ":"))
		return kw, rest
	}
	return "", ""
}

type yamlRules struct {
	Rules []struct {
		Symbol string   `yaml:"symbol"`
		Lower  *float64 `yaml:"lower"`
		Upper  *float64 `yaml:"upper"`
	} `yaml:"rules"`
}

// ParseYAMLRules parses
//
//	rules:
//	  - symbol: BTCUSDT
//	    lower: 60000
//	    upper: 70000
//
// Entries missing a bound are skipped.
func ParseYAMLRules(r io.Reader) ([]Rule, error) {
	var doc yamlRules
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	var rules []Rule
	for _, e := range doc.Rules {
		if e.Symbol == "" || e.Lower == nil || e.Upper == nil {
			continue
		}
		rules = append(rules, Rule{Symbol: strings.ToUpper(e.Symbol), Lower: *e.Lower, Upper: *e.Upper})
	}
	return rules, nil
}
