// Package geo provides best-effort listener geolocation for structured
// logs. The raw IP never leaves this package: it is salted, hashed, and
// dropped before the result is returned.
package geo

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"math"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Info is what survives enrichment: a salted hash of the listener's IP and
// whatever location the database could resolve.
type Info struct {
	IPHash  string
	Country string
	Region  string
	City    string
	Lat     float64
	Lon     float64
}

// Resolver looks up listener addresses against a MaxMind city database. A
// Resolver with no database still hashes IPs; every failure mode degrades
// to hash-only, never to an error the caller has to handle.
type Resolver struct {
	db   *geoip2.Reader
	salt []byte
	ok   bool
}

// NewResolver opens the database at dbPath. An empty path or an open
// failure yields a hash-only Resolver.
func NewResolver(dbPath, salt string) *Resolver {
	r := &Resolver{salt: []byte(salt)}
	if dbPath == "" {
		return r
	}
	db, err := geoip2.Open(dbPath)
	if err != nil {
		slog.Warn("geo: failed opening database, continuing without geo", "path", dbPath, "error", err)
		return r
	}
	r.db = db
	r.ok = true
	return r
}

// Close releases the database handle, if any.
func (r *Resolver) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// Enrich resolves remoteAddr (a host:port as seen on an HTTP request) into
// an Info. It never fails: at worst the Info carries only the IP hash.
func (r *Resolver) Enrich(remoteAddr string) Info {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	info := Info{IPHash: r.hash(host)}

	ip := net.ParseIP(host)
	if !r.ok || ip == nil {
		return info
	}
	city, err := r.db.City(ip)
	if err != nil {
		return info
	}
	info.Country = city.Country.IsoCode
	if len(city.Subdivisions) > 0 {
		info.Region = city.Subdivisions[0].Names["en"]
	}
	info.City = city.City.Names["en"]
	info.Lat = round2(city.Location.Latitude)
	info.Lon = round2(city.Location.Longitude)
	return info
}

func (r *Resolver) hash(ip string) string {
	sum := sha256.Sum256(append(r.salt, []byte(ip)...))
	return hex.EncodeToString(sum[:])
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
