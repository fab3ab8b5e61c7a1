package ir

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// DomainRevisionSet is the domain prefix for revision set digests.
// The version suffix enables future algorithm migration.
const DomainRevisionSet = "trasco/revision-set/v1"

// Digest computes a content hash identifying the revision set.
//
// The hash covers parameters (in declaration order), revisions and every
// statement, serialized as canonical JSON: sorted object keys, no HTML
// escaping and NFC-normalized strings. Two documents that parse to the same
// revision set have the same digest regardless of source format.
func (s *SchemaRevisionSet) Digest() (string, error) {
	params := make([]any, 0, s.parameters.Len())
	for _, p := range s.parameters.list {
		params = append(params, map[string]any{
			"name": p.Name,
			"kind": string(p.Kind),
		})
	}

	revisions := make([]any, 0, len(s.revisions))
	for _, rev := range s.revisions {
		statements := make([]any, 0, len(rev.Statements))
		for _, st := range rev.Statements {
			statements = append(statements, statementDigestForm(st))
		}
		revisions = append(revisions, map[string]any{
			"version":    rev.Version.String(),
			"statements": statements,
		})
	}

	canonical, err := marshalCanonical(map[string]any{
		"parameters": params,
		"revisions":  revisions,
	})
	if err != nil {
		return "", fmt.Errorf("Digest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRevisionSet, canonical), nil
}

func statementDigestForm(st Statement) map[string]any {
	switch s := st.(type) {
	case PlainStatement:
		return map[string]any{"sql": s.SQL}
	case ParameterizedStatement:
		refs := make([]any, 0, s.References.Len())
		for _, ref := range s.References.inOrder {
			refs = append(refs, map[string]any{"order": ref.Order, "name": ref.Name})
		}
		return map[string]any{
			"sql":           s.SQL,
			"interpolation": string(s.Interpolation),
			"references":    refs,
		}
	default:
		panic(fmt.Sprintf("unreachable: unknown statement type %T", st))
	}
}

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// marshalCanonical serializes strings, ints, slices and string-keyed maps.
// Keys are ASCII identifiers here, so byte order equals code-unit order.
func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case string:
		return marshalCanonicalString(val)
	case int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalCanonical(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := marshalCanonicalString(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := marshalCanonical(val[k])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalCanonicalString produces a JSON string with NFC normalization and
// HTML escaping disabled.
func marshalCanonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	// Encoder appends a newline.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
