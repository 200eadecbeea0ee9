package scanner

import (
	"path/filepath"
	"regexp"
)

// filter applies the configured include and exclude patterns. Each pattern
// is tried as a glob against the bare filename and, when it compiles, as a
// regular expression against the full path. Include patterns form an
// allowlist when any are set; an exclude match always wins.
type filter struct {
	include []pattern
	exclude []pattern
}

type pattern struct {
	glob string
	re   *regexp.Regexp
}

func newFilter(include, exclude []string) *filter {
	return &filter{
		include: compilePatterns(include),
		exclude: compilePatterns(exclude),
	}
}

func compilePatterns(items []string) []pattern {
	patterns := make([]pattern, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		p := pattern{glob: item}
		if re, err := regexp.Compile(item); err == nil {
			p.re = re
		}
		patterns = append(patterns, p)
	}
	return patterns
}

func (f *filter) keep(path string) bool {
	if len(f.include) > 0 && !matchAny(f.include, path) {
		return false
	}
	return !matchAny(f.exclude, path)
}

func matchAny(patterns []pattern, path string) bool {
	base := filepath.Base(path)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p.glob, base); ok {
			return true
		}
		if p.re != nil && p.re.MatchString(path) {
			return true
		}
	}
	return false
}
