package asyncutil

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Match describes a single regexp match passed to a replacement function.
type Match struct {
	// Text is the full matched text.
	Text string

	// Groups holds the submatches; Groups[0] is the full match and
	// unmatched optional groups are empty strings.
	Groups []string

	// Start is the byte offset of the match in the source string.
	Start int
}

// ReplaceFunc produces the replacement for one match. It may block; matches
// are processed concurrently.
type ReplaceFunc func(ctx context.Context, m Match) (string, error)

// ReplaceAsync replaces every match of re in src using repl. Replacement
// functions run concurrently, but the final string preserves left-to-right
// match order regardless of completion order. The first error cancels the
// remaining replacements and is returned.
func ReplaceAsync(ctx context.Context, re *regexp.Regexp, src string, repl ReplaceFunc) (string, error) {
	locs := re.FindAllStringSubmatchIndex(src, -1)
	if len(locs) == 0 {
		return src, nil
	}

	replacements := make([]string, len(locs))
	g, gctx := errgroup.WithContext(ctx)
	for i, loc := range locs {
		i := i
		m := Match{
			Text:   src[loc[0]:loc[1]],
			Groups: submatches(src, loc),
			Start:  loc[0],
		}
		g.Go(func() error {
			s, err := repl(gctx, m)
			if err != nil {
				return err
			}
			replacements[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var b strings.Builder
	last := 0
	for i, loc := range locs {
		b.WriteString(src[last:loc[0]])
		b.WriteString(replacements[i])
		last = loc[1]
	}
	b.WriteString(src[last:])
	return b.String(), nil
}

func submatches(src string, loc []int) []string {
	groups := make([]string, 0, len(loc)/2)
	for i := 0; i < len(loc); i += 2 {
		if loc[i] < 0 {
			groups = append(groups, "")
			continue
		}
		groups = append(groups, src[loc[i]:loc[i+1]])
	}
	return groups
}
