// Package pathres computes storage-backend paths from tenant, basket, and
// document identity. It is a pure function module: no database access, no
// configuration lookup, no global state.
//
// A resolved path has three independently stored components:
//
//   - Part A – tenant/config prefix: "{tenant_id}/{namespace}/{prefix}/",
//     computed once per basket at creation time and cached on the basket.
//     Filesystem backends omit Part A entirely because their configured
//     root already encodes tenant and application scope.
//   - Part B – basket segment: "{sanitized_name}_{last4(basket_id)}/",
//     computed once at basket creation.
//   - Part C – document segment: "{sanitized_name}_{last6(doc_id)}.{ext}",
//     computed once at document ingestion and stored verbatim as the
//     document's canonical path component.
//
// Collision avoidance comes from the identity suffixes, never from
// sanitization uniqueness. Components are joined with JoinUnderRoot, which
// refuses to repeat a segment already present at the end of the configured
// root (the "double-prefix" defect class).
package pathres

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxNameLen bounds the sanitized form of basket and document names.
const maxNameLen = 64

// Config carries the per-basket backend configuration that contributes to
// Part A. It is captured at basket creation; later changes produce new
// prefixes for new baskets only.
type Config struct {
	TenantID      string
	PathNamespace string
	Prefix        string
}

// TenantPrefix returns Part A for the given backend configuration: the
// non-empty segments of tenant id, namespace, and configured prefix joined
// with "/" and terminated by "/". An entirely empty configuration yields "".
func TenantPrefix(cfg Config) string {
	segs := make([]string, 0, 3)
	for _, s := range []string{cfg.TenantID, cfg.PathNamespace, cfg.Prefix} {
		s = strings.Trim(strings.TrimSpace(s), "/")
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 {
		return ""
	}
	return strings.Join(segs, "/") + "/"
}

// BasketSegment returns Part B: the sanitized basket name suffixed with the
// last four hex characters of the basket UUID, terminated by "/".
func BasketSegment(name, basketID string) string {
	return Sanitize(name) + "_" + idSuffix(basketID, 4) + "/"
}

// DocumentSegment returns Part C: the sanitized document name suffixed with
// the last six hex characters of the document UUID, plus the extension when
// one is supplied. The extension may be passed with or without a leading dot.
func DocumentSegment(name, docID, ext string) string {
	seg := Sanitize(name) + "_" + idSuffix(docID, 6)
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext != "" {
		seg += "." + Sanitize(ext)
	}
	return seg
}

// Sanitize produces a backend-safe path component from an arbitrary name:
// NFKC-normalized, lowercased, path separators and reserved characters
// replaced by underscores, runs of underscores collapsed, and the result
// truncated to a bounded length. Sanitize never guarantees uniqueness;
// callers rely on the identity suffixes for that.
func Sanitize(name string) string {
	name = norm.NFKC.String(strings.TrimSpace(name))
	name = strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_.")
	if out == "" {
		out = "unnamed"
	}
	if len(out) > maxNameLen {
		out = strings.Trim(out[:maxNameLen], "_.")
	}
	return out
}

// JoinUnderRoot joins stored path components beneath a configured backend
// root. Leading segments of the stored components that duplicate the
// trailing segments of the root are dropped, so each component of the final
// path appears exactly once regardless of how the root was configured.
//
// JoinUnderRoot("storage/docex", "basket_123/", "doc_456") returns
// "storage/docex/basket_123/doc_456"; a stored component that itself starts
// with "docex/" does not yield "storage/docex/docex/...".
func JoinUnderRoot(root string, parts ...string) string {
	rootSegs := splitSegs(root)

	var segs []string
	for _, p := range parts {
		segs = append(segs, splitSegs(p)...)
	}

	// Drop the longest prefix of segs that matches a suffix of rootSegs.
	for overlap := min(len(rootSegs), len(segs)); overlap > 0; overlap-- {
		if segsEqual(rootSegs[len(rootSegs)-overlap:], segs[:overlap]) {
			segs = segs[overlap:]
			break
		}
	}

	all := append(rootSegs, segs...)
	joined := strings.Join(all, "/")
	if strings.HasPrefix(root, "/") {
		joined = "/" + joined
	}
	return joined
}

func splitSegs(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func segsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// idSuffix returns the last n hex characters of a UUID, ignoring hyphens.
// Short or empty identifiers are used as-is.
func idSuffix(id string, n int) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) <= n {
		return id
	}
	return id[len(id)-n:]
}
