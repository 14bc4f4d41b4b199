package service

import (
	"strings"

	"policy-pulse-server/internal/domain"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultUnifiedContext is the context line count for unified patches.
const DefaultUnifiedContext = 3

// DefaultMaxEqualChunkLines is the inline view's collapse threshold: runs of
// more consecutive unchanged lines than this are folded to a placeholder.
const DefaultMaxEqualChunkLines = 6

const collapsedMarker = " … … (unchanged block collapsed) … … "

// DiffStructured produces the segment-list diff of two normalized texts.
// When the line-level diff finds no equal segment at all — a sign that line
// alignment failed, usually because the text reflowed — it re-runs at word
// granularity, which has better odds of finding a common substrate.
func DiffStructured(oldTxt, newTxt string) *domain.StructuredDiff {
	segments := diffTokens(splitKeepingNewlines(oldTxt), splitKeepingNewlines(newTxt))
	granularity := "line"

	if allChanged(segments) {
		segments = diffTokens(splitWords(oldTxt), splitWords(newTxt))
		granularity = "word"
	}

	summary := domain.DiffSummary{TotalSegments: len(segments)}
	for _, seg := range segments {
		switch seg.Kind {
		case domain.DiffAdded:
			summary.Added++
		case domain.DiffRemoved:
			summary.Removed++
		}
	}

	return &domain.StructuredDiff{
		Summary:     summary,
		Segments:    segments,
		Granularity: granularity,
	}
}

// DiffUnified renders a git-style contextual patch between two labeled texts.
// A negative opts.Context selects the default; zero means no context lines.
func DiffUnified(oldTxt, newTxt string, opts domain.UnifiedOptions) (*domain.UnifiedDiff, error) {
	context := opts.Context
	if context < 0 {
		context = DefaultUnifiedContext
	}

	patch, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldTxt),
		B:        difflib.SplitLines(newTxt),
		FromFile: opts.OldName,
		ToFile:   opts.NewName,
		Context:  context,
	})
	if err != nil {
		return nil, err
	}

	return &domain.UnifiedDiff{
		Patch:     patch,
		OldLength: len(oldTxt),
		NewLength: len(newTxt),
	}, nil
}

// DiffInline renders a merged view with +/-/space line prefixes. Long
// stretches of unchanged lines are collapsed so the output stays scannable.
func DiffInline(oldTxt, newTxt string, maxEqualChunkLines int) string {
	if maxEqualChunkLines <= 0 {
		maxEqualChunkLines = DefaultMaxEqualChunkLines
	}

	segments := diffTokens(splitKeepingNewlines(oldTxt), splitKeepingNewlines(newTxt))
	var out []string
	for _, seg := range segments {
		prefix := " "
		switch seg.Kind {
		case domain.DiffAdded:
			prefix = "+"
		case domain.DiffRemoved:
			prefix = "-"
		}

		block := strings.Split(strings.TrimSuffix(seg.Text, "\n"), "\n")
		if seg.Kind == domain.DiffEqual && len(block) > maxEqualChunkLines {
			out = append(out, collapsedMarker)
			continue
		}
		for _, l := range block {
			if l == "" && prefix != " " {
				continue
			}
			out = append(out, prefix+" "+l)
		}
	}

	// Drop the synthetic terminator line the splitter appends.
	for len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

// diffTokens turns SequenceMatcher opcodes over token slices into diff
// segments. Replacements expand to a removed segment followed by an added
// one, keeping the partition property intact.
func diffTokens(oldTokens, newTokens []string) []domain.DiffSegment {
	matcher := difflib.NewMatcher(oldTokens, newTokens)
	var segments []domain.DiffSegment

	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			segments = append(segments, segment(domain.DiffEqual, oldTokens[op.I1:op.I2]))
		case 'd':
			segments = append(segments, segment(domain.DiffRemoved, oldTokens[op.I1:op.I2]))
		case 'i':
			segments = append(segments, segment(domain.DiffAdded, newTokens[op.J1:op.J2]))
		case 'r':
			segments = append(segments,
				segment(domain.DiffRemoved, oldTokens[op.I1:op.I2]),
				segment(domain.DiffAdded, newTokens[op.J1:op.J2]))
		}
	}
	return segments
}

func segment(kind domain.DiffKind, tokens []string) domain.DiffSegment {
	return domain.DiffSegment{Kind: kind, Text: strings.Join(tokens, "")}
}

func allChanged(segments []domain.DiffSegment) bool {
	for _, seg := range segments {
		if seg.Kind == domain.DiffEqual {
			return false
		}
	}
	return true
}

// splitKeepingNewlines splits into lines that retain their terminator so
// joined segments reconstruct the original text exactly.
func splitKeepingNewlines(s string) []string {
	if s == "" {
		return nil
	}
	return difflib.SplitLines(s)
}

// splitWords splits into word tokens that retain their trailing whitespace.
func splitWords(s string) []string {
	var tokens []string
	start := 0
	inSpace := false
	for i, r := range s {
		isSpace := r == ' ' || r == '\t' || r == '\n'
		if inSpace && !isSpace {
			tokens = append(tokens, s[start:i])
			start = i
		}
		inSpace = isSpace
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}
