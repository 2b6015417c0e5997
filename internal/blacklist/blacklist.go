// Package blacklist implements spec.md §4.7: a static, immutable list
// of forbidden hosts/IPs loaded once at startup, with a linear-scan
// membership test against both a URL's host and its resolved IP.
package blacklist

import (
	"bufio"
	"os"
	"strings"

	"github.com/relayhttp/relay/contrib/log"
)

// List is an immutable-after-Load sequence of blacklisted
// hosts/IPs, grounded on the original's blacklist_init/
// blacklist_has_entry pair.
type List struct {
	entries []string
}

// Load reads path (one entry per line; blank lines and lines starting
// with "#" are skipped). A missing file is not fatal — it logs an
// error and yields an empty list, matching spec.md §6's
// "missing file logs an error and yields empty blacklist".
func Load(path string) *List {
	f, err := os.Open(path)
	if err != nil {
		log.Errorw("msg", "failed to load blacklist", "path", path, "err", err)
		return &List{}
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		log.Errorw("msg", "error reading blacklist", "path", path, "err", err)
	}

	log.Infof("loaded %d blacklist entries from %s", len(entries), path)
	return &List{entries: entries}
}

// Has reports whether host or ip matches any blacklisted entry.
func (l *List) Has(host, ip string) bool {
	for _, entry := range l.entries {
		if entry == host || entry == ip {
			return true
		}
	}
	return false
}

// Len reports the number of loaded entries.
func (l *List) Len() int {
	return len(l.entries)
}
