// Package provider loads and freezes the per-broadcaster configuration
// (dictionary reference, NID/TSID/SID, and the three PID role sets) that
// the rest of the grabber consumes read-only during a run.
package provider

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"

	"github.com/opentvepg/grabber/internal/huffman"
)

// Provider is one broadcaster's immutable, post-load configuration.
type Provider struct {
	ID   string
	Name string
	Dict *huffman.Tree

	NID  uint16
	TSID uint16
	SID  uint16

	ChannelPIDs []uint16
	TitlePIDs   []uint16
	SummaryPIDs []uint16
}

// Registry is the frozen set of providers and dictionaries loaded at init.
type Registry struct {
	Dicts     *huffman.Registry
	providers map[string]*Provider
}

// Lookup returns the provider registered under id, or nil.
func (r *Registry) Lookup(id string) *Provider {
	return r.providers[id]
}

// All returns every loaded provider, in no particular order.
func (r *Registry) All() []*Provider {
	out := make([]*Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	return out
}

// Len reports how many providers loaded successfully.
func (r *Registry) Len() int { return len(r.providers) }

// Load reads dict files from dictDir and provider files from provDir,
// building dictionaries first so every provider's dict reference resolves.
// A malformed or duplicate provider is logged and skipped, never fatal;
// dictionaries follow the same discipline.
func Load(dictDir, provDir string) (*Registry, error) {
	dicts := huffman.NewRegistry()
	dictEntries, err := os.ReadDir(dictDir)
	if err != nil {
		return nil, fmt.Errorf("provider: read dict dir %s: %w", dictDir, err)
	}
	for _, ent := range dictEntries {
		if ent.IsDir() {
			continue
		}
		id := strings.TrimSuffix(ent.Name(), ".br")
		codes, err := readCodeMap(filepath.Join(dictDir, ent.Name()))
		if err != nil {
			log.Printf("provider: skip dict %q: %v", id, err)
			continue
		}
		tree, err := huffman.Build(codes)
		if err != nil {
			log.Printf("provider: skip dict %q: %v", id, err)
			continue
		}
		dicts.Add(id, tree)
	}

	reg := &Registry{Dicts: dicts, providers: make(map[string]*Provider)}
	provEntries, err := os.ReadDir(provDir)
	if err != nil {
		return nil, fmt.Errorf("provider: read provider dir %s: %w", provDir, err)
	}
	for _, ent := range provEntries {
		if ent.IsDir() {
			continue
		}
		id := strings.TrimSuffix(ent.Name(), ".br")
		if _, exists := reg.providers[id]; exists {
			log.Printf("provider: duplicate provider id %q, keeping first", id)
			continue
		}
		p, err := readProvider(filepath.Join(provDir, ent.Name()), id, dicts)
		if err != nil {
			log.Printf("provider: skip provider %q: %v", id, err)
			continue
		}
		reg.providers[id] = p
	}
	return reg, nil
}

// openMaybeBrotli opens path, transparently decompressing it when the name
// ends in ".br" — the on-disk bundle format for distributed dictionary and
// provider snapshots.
func openMaybeBrotli(path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".br") {
		return f, nil
	}
	return struct {
		io.Reader
		io.Closer
	}{Reader: brotli.NewReader(f), Closer: f}, nil
}

// readCodeMap parses a dictionary file: one "<bitstring> <hex bytes>" pair
// per line, blank lines and "#"-prefixed comments ignored.
func readCodeMap(path string) (map[string][]byte, error) {
	f, err := openMaybeBrotli(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	codes := make(map[string][]byte)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed dict line %q", line)
		}
		out, err := decodeHexBytes(fields[1])
		if err != nil {
			return nil, fmt.Errorf("dict code %q: %w", fields[0], err)
		}
		codes[fields[0]] = out
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

func decodeHexBytes(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string %q", s)
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}

// readProvider parses a provider config file: one "key=value" pair per
// line. Required keys: name, dict, nid, tsid, sid, channel, title,
// summary — the last three are comma-separated PID lists.
func readProvider(path, id string, dicts *huffman.Registry) (*Provider, error) {
	f, err := openMaybeBrotli(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fields := map[string]string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	for _, req := range []string{"name", "dict", "nid", "tsid", "sid", "channel", "title", "summary"} {
		if fields[req] == "" {
			return nil, fmt.Errorf("missing required field %q", req)
		}
	}

	tree := dicts.Lookup(fields["dict"])
	if tree == nil {
		return nil, fmt.Errorf("unknown dictionary %q", fields["dict"])
	}

	nid, err := parseUint16(fields["nid"])
	if err != nil {
		return nil, fmt.Errorf("nid: %w", err)
	}
	tsid, err := parseUint16(fields["tsid"])
	if err != nil {
		return nil, fmt.Errorf("tsid: %w", err)
	}
	sid, err := parseUint16(fields["sid"])
	if err != nil {
		return nil, fmt.Errorf("sid: %w", err)
	}

	chanPIDs, err := parsePIDList(fields["channel"])
	if err != nil {
		return nil, fmt.Errorf("channel pids: %w", err)
	}
	titlePIDs, err := parsePIDList(fields["title"])
	if err != nil {
		return nil, fmt.Errorf("title pids: %w", err)
	}
	summaryPIDs, err := parsePIDList(fields["summary"])
	if err != nil {
		return nil, fmt.Errorf("summary pids: %w", err)
	}
	if !pidSetsDisjoint(chanPIDs, titlePIDs, summaryPIDs) {
		return nil, fmt.Errorf("channel/title/summary pid sets are not disjoint")
	}

	return &Provider{
		ID:          id,
		Name:        fields["name"],
		Dict:        tree,
		NID:         nid,
		TSID:        tsid,
		SID:         sid,
		ChannelPIDs: chanPIDs,
		TitlePIDs:   titlePIDs,
		SummaryPIDs: summaryPIDs,
	}, nil
}

func parseUint16(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}

func parsePIDList(s string) ([]uint16, error) {
	parts := strings.Split(s, ",")
	out := make([]uint16, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := parseUint16(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func pidSetsDisjoint(sets ...[]uint16) bool {
	seen := make(map[uint16]int, 16)
	for _, set := range sets {
		for _, pid := range set {
			seen[pid]++
			if seen[pid] > 1 {
				return false
			}
		}
	}
	return true
}

// HasChannelPID reports whether pid is one of p's channel PIDs.
func (p *Provider) HasChannelPID(pid uint16) bool { return containsPID(p.ChannelPIDs, pid) }

// HasTitlePID reports whether pid is one of p's title PIDs.
func (p *Provider) HasTitlePID(pid uint16) bool { return containsPID(p.TitlePIDs, pid) }

// HasSummaryPID reports whether pid is one of p's summary PIDs.
func (p *Provider) HasSummaryPID(pid uint16) bool { return containsPID(p.SummaryPIDs, pid) }

func containsPID(set []uint16, pid uint16) bool {
	for _, v := range set {
		if v == pid {
			return true
		}
	}
	return false
}
