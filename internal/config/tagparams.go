package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/teslashibe/go-fiducial/pkg/tag"
)

// ErrTagParams is returned for a malformed -tag-params value.
var ErrTagParams = errors.New("tag parameters must be in format tagsize,fx,fy,cx,cy")

// TagParams is a flag.Value holding camera intrinsics and tag size in the
// form "tagsize,fx,fy,cx,cy".
type TagParams struct {
	tag.Intrinsics
	set bool
}

// NewTagParams returns TagParams seeded with in.
func NewTagParams(in tag.Intrinsics) *TagParams {
	return &TagParams{Intrinsics: in}
}

// ParseTagParams parses "tagsize,fx,fy,cx,cy".
func ParseTagParams(s string) (tag.Intrinsics, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 5 {
		return tag.Intrinsics{}, ErrTagParams
	}

	var v [5]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return tag.Intrinsics{}, fmt.Errorf("%w: %q: %w", ErrTagParams, p, err)
		}
		v[i] = f
	}
	return tag.Intrinsics{TagSize: v[0], Fx: v[1], Fy: v[2], Cx: v[3], Cy: v[4]}, nil
}

// String implements flag.Value.
func (p *TagParams) String() string {
	if p == nil {
		return ""
	}
	f := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	return strings.Join([]string{f(p.TagSize), f(p.Fx), f(p.Fy), f(p.Cx), f(p.Cy)}, ",")
}

// Set implements flag.Value.
func (p *TagParams) Set(s string) error {
	in, err := ParseTagParams(s)
	if err != nil {
		return err
	}
	p.Intrinsics = in
	p.set = true
	return nil
}

// IsSet reports whether Set succeeded at least once.
func (p *TagParams) IsSet() bool {
	return p.set
}
