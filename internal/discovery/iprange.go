package discovery

import (
	"encoding/binary"
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"

	"github.com/rileyhilliard/zenctl/internal/errors"
)

// RangeInputMessage is shown when no token in the ranges field is usable.
const RangeInputMessage = "You must enter at least one network or ip range."

// MaxExpand bounds how many addresses ExpandRange will list.
const MaxExpand = 1 << 16

// SplitInput breaks the ranges field into tokens. Tokens are separated by
// commas and newlines; blanks are dropped and duplicates keep their first
// position.
func SplitInput(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\n' }) {
		tok = strings.TrimSpace(tok)
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// ValidRangeInput reports whether at least one token of text looks like an
// IPv4 range or network.
func ValidRangeInput(text string) bool {
	candidates := append(strings.Split(text, ","), strings.Split(text, "\n")...)
	seen := make(map[string]bool)
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if seen[c] {
			continue
		}
		seen[c] = true
		if isRangeOrNetwork(c) {
			return true
		}
	}
	return false
}

// ValidateRangeInput is ValidRangeInput as an error, for form fields.
func ValidateRangeInput(text string) error {
	if ValidRangeInput(text) {
		return nil
	}
	return fmt.Errorf("%s", RangeInputMessage)
}

// isRangeOrNetwork accepts four dot-separated pieces that are each numeric
// once a single "/" and a single "-" are taken out.
func isRangeOrNetwork(val string) bool {
	pieces := strings.Split(val, ".")
	if len(pieces) != 4 {
		return false
	}
	for _, p := range pieces {
		p = strings.Replace(p, "/", "", 1)
		p = strings.Replace(p, "-", "", 1)
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Range is one parsed token: a single address, a span or a network.
type Range struct {
	Token   string
	First   netip.Addr
	Last    netip.Addr
	Network bool
}

// ParseRange parses a token the way the server expands discovery input:
//
//	10.0.0.7            a single address
//	10.0.0.0/24         a network
//	10.0.0.1-50         50 addresses starting at 10.0.0.1
//	10.0.0.9-10.0.0.1   both ends inclusive, swapped when reversed
//
// IPv6 works the same way. More than one "-" is invalid.
func ParseRange(token string) (Range, error) {
	token = strings.TrimSpace(token)
	r := Range{Token: token}
	if token == "" {
		return r, invalidRange(token, "it is empty")
	}

	if strings.Contains(token, "/") {
		p, err := netip.ParsePrefix(token)
		if err != nil {
			return r, invalidRange(token, "it is not a network")
		}
		p = p.Masked()
		r.First = p.Addr()
		r.Last = lastInPrefix(p)
		r.Network = true
		return r, nil
	}

	parts := strings.Split(token, "-")
	switch len(parts) {
	case 1:
		a, err := netip.ParseAddr(token)
		if err != nil {
			return r, invalidRange(token, "it is not an address")
		}
		r.First, r.Last = a, a
		return r, nil
	case 2:
	default:
		return r, invalidRange(token, "it has more than one '-'")
	}

	begin, err := netip.ParseAddr(strings.TrimSpace(parts[0]))
	if err != nil {
		return r, invalidRange(token, "the start is not an address")
	}
	endText := strings.TrimSpace(parts[1])

	if n, err := strconv.ParseUint(endText, 10, 64); err == nil {
		if n == 0 {
			return r, invalidRange(token, "it covers no addresses")
		}
		last, ok := toU128(begin).add(n - 1)
		if !ok || !last.fits(begin.Is4()) {
			return r, invalidRange(token, "it runs past the end of the address space")
		}
		r.First, r.Last = begin, last.addr(begin.Is4())
		return r, nil
	}

	end, err := netip.ParseAddr(endText)
	if err != nil {
		return r, invalidRange(token, fmt.Sprintf("'%s' is not a valid end", endText))
	}
	if begin.Is4() != end.Is4() {
		return r, invalidRange(token, "both ends must be the same IP version")
	}
	if end.Less(begin) {
		begin, end = end, begin
	}
	r.First, r.Last = begin, end
	return r, nil
}

// Size returns how many addresses the range covers, capped at MaxUint64.
func (r Range) Size() uint64 {
	d, ok := toU128(r.Last).sub(toU128(r.First))
	if !ok || d.hi != 0 || d.lo == math.MaxUint64 {
		return math.MaxUint64
	}
	return d.lo + 1
}

// Addrs returns up to limit addresses from the start of the range.
func (r Range) Addrs(limit int) []netip.Addr {
	var out []netip.Addr
	for a := r.First; a.IsValid() && len(out) < limit; a = a.Next() {
		out = append(out, a)
		if a == r.Last {
			break
		}
	}
	return out
}

func (r Range) String() string {
	if r.First == r.Last {
		return r.First.String()
	}
	return r.First.String() + "-" + r.Last.String()
}

// ExpandRange lists every address in token. Ranges larger than MaxExpand are
// refused.
func ExpandRange(token string) ([]string, error) {
	r, err := ParseRange(token)
	if err != nil {
		return nil, err
	}
	if n := r.Size(); n > MaxExpand {
		return nil, errors.New(errors.ErrDiscovery,
			fmt.Sprintf("%s covers %d addresses", r.Token, n),
			fmt.Sprintf("Only ranges up to %d addresses can be listed.", MaxExpand))
	}
	addrs := r.Addrs(MaxExpand)
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out, nil
}

func invalidRange(token, why string) error {
	return errors.New(errors.ErrDiscovery,
		fmt.Sprintf("'%s' is an invalid IP range: %s", token, why),
		"Use an address, a network like 10.0.0.0/24 or a range like 10.0.0.1-50.")
}

func lastInPrefix(p netip.Prefix) netip.Addr {
	is4 := p.Addr().Is4()
	bits := 128
	if is4 {
		bits = 32
	}
	host := bits - p.Bits()
	return toU128(p.Addr()).or(hostMask(host)).addr(is4)
}

// u128 is an address as a 128-bit integer. IPv4 lives in the low 32 bits.
type u128 struct {
	hi, lo uint64
}

func toU128(a netip.Addr) u128 {
	if a.Is4() {
		b := a.As4()
		return u128{lo: uint64(binary.BigEndian.Uint32(b[:]))}
	}
	b := a.As16()
	return u128{hi: binary.BigEndian.Uint64(b[:8]), lo: binary.BigEndian.Uint64(b[8:])}
}

func (u u128) addr(is4 bool) netip.Addr {
	if is4 {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(u.lo))
		return netip.AddrFrom4(b)
	}
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], u.hi)
	binary.BigEndian.PutUint64(b[8:], u.lo)
	return netip.AddrFrom16(b)
}

func (u u128) fits(is4 bool) bool {
	return !is4 || (u.hi == 0 && u.lo <= math.MaxUint32)
}

func (u u128) add(n uint64) (u128, bool) {
	lo := u.lo + n
	hi := u.hi
	if lo < u.lo {
		hi++
		if hi == 0 {
			return u128{}, false
		}
	}
	return u128{hi: hi, lo: lo}, true
}

func (u u128) sub(v u128) (u128, bool) {
	if u.hi < v.hi || (u.hi == v.hi && u.lo < v.lo) {
		return u128{}, false
	}
	lo := u.lo - v.lo
	hi := u.hi - v.hi
	if u.lo < v.lo {
		hi--
	}
	return u128{hi: hi, lo: lo}, true
}

func (u u128) or(v u128) u128 {
	return u128{hi: u.hi | v.hi, lo: u.lo | v.lo}
}

// hostMask has the low n bits set.
func hostMask(n int) u128 {
	switch {
	case n <= 0:
		return u128{}
	case n < 64:
		return u128{lo: 1<<uint(n) - 1}
	case n == 64:
		return u128{lo: math.MaxUint64}
	case n < 128:
		return u128{hi: 1<<uint(n-64) - 1, lo: math.MaxUint64}
	default:
		return u128{hi: math.MaxUint64, lo: math.MaxUint64}
	}
}
