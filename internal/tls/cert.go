// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package tls provisions the certificate pair the HTTPS listener serves.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
)

// DefaultValidity is how long a generated certificate stays valid.
const DefaultValidity = 2 * 365 * 24 * time.Hour

// Config describes the pair to provision.
type Config struct {
	CertPath string
	KeyPath  string
	// Hosts are extra DNS names or IPs for the certificate, typically the site host.
	Hosts    []string
	Validity time.Duration
	Logger   zerolog.Logger
}

// EnsureCertificates keeps an existing pair and otherwise writes a fresh
// self-signed one. A half-present pair is replaced.
func EnsureCertificates(cfg Config) error {
	if cfg.CertPath == "" || cfg.KeyPath == "" {
		return fmt.Errorf("tls: certificate and key paths are required")
	}
	certExists := fileExists(cfg.CertPath)
	keyExists := fileExists(cfg.KeyPath)
	if certExists && keyExists {
		if _, err := tls.LoadX509KeyPair(cfg.CertPath, cfg.KeyPath); err == nil {
			cfg.Logger.Debug().Str("cert", cfg.CertPath).Msg("TLS certificates found")
			return nil
		}
		cfg.Logger.Warn().Str("cert", cfg.CertPath).Msg("existing TLS pair unreadable, regenerating")
	} else if certExists || keyExists {
		cfg.Logger.Warn().
			Bool("cert_exists", certExists).
			Bool("key_exists", keyExists).
			Msg("incomplete TLS pair found, regenerating both")
	}

	ips, dns := splitHosts(cfg.Hosts)
	if netIPs, err := NetworkIPs(); err != nil {
		cfg.Logger.Warn().Err(err).Msg("failed to detect network IPs, certificate covers localhost only")
	} else {
		ips = append(ips, netIPs...)
	}

	validity := cfg.Validity
	if validity <= 0 {
		validity = DefaultValidity
	}
	if err := GenerateSelfSigned(cfg.CertPath, cfg.KeyPath, validity, ips, dns); err != nil {
		return err
	}
	cfg.Logger.Info().
		Str("cert", cfg.CertPath).
		Str("key", cfg.KeyPath).
		Dur("validity", validity).
		Int("ip_sans", len(ips)).
		Msg("self-signed TLS certificate generated")
	return nil
}

// GenerateSelfSigned writes an ECDSA P-256 certificate for localhost plus the
// given IPs and names. Both files are replaced atomically.
func GenerateSelfSigned(certPath, keyPath string, validity time.Duration, ips []net.IP, dns []string) error {
	for _, dir := range []string{filepath.Dir(certPath), filepath.Dir(keyPath)} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("create cert directory: %w", err)
		}
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate private key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("generate serial number: %w", err)
	}

	notBefore := time.Now().Add(-time.Minute)
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"vidfolio self-signed"},
			CommonName:   "vidfolio",
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IPAddresses:           uniqueIPs(append([]net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback}, ips...)),
		DNSNames:              uniqueNames(append([]string{"localhost"}, dns...)),
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshal private key: %w", err)
	}

	if err := renameio.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0600); err != nil {
		return fmt.Errorf("write key: %w", err)
	}
	if err := renameio.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0644); err != nil {
		return fmt.Errorf("write certificate: %w", err)
	}
	return nil
}

// ServerConfig is the TLS configuration the HTTPS listener uses.
func ServerConfig() *tls.Config {
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

// NetworkIPs returns the non-loopback, non-link-local addresses of every interface that is up.
func NetworkIPs() ([]net.IP, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("get network interfaces: %w", err)
	}

	var ips []net.IP
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
				continue
			}
			ips = append(ips, ip)
		}
	}
	return ips, nil
}

func splitHosts(hosts []string) (ips []net.IP, dns []string) {
	for _, h := range hosts {
		if h == "" {
			continue
		}
		if ip := net.ParseIP(h); ip != nil {
			ips = append(ips, ip)
			continue
		}
		dns = append(dns, h)
	}
	return ips, dns
}

func uniqueIPs(in []net.IP) []net.IP {
	out := make([]net.IP, 0, len(in))
	for _, ip := range in {
		if ip == nil || slices.ContainsFunc(out, ip.Equal) {
			continue
		}
		out = append(out, ip)
	}
	return out
}

func uniqueNames(in []string) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		if n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
