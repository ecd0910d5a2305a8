// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tls

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadCertificate(t *testing.T, certPath string) *x509.Certificate {
	t.Helper()
	certPEM, err := os.ReadFile(certPath) // #nosec G304 -- test file
	require.NoError(t, err)
	block, _ := pem.Decode(certPEM)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	return cert
}

func paths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "certs", "site.crt"), filepath.Join(dir, "certs", "site.key")
}

func TestGenerateSelfSigned(t *testing.T) {
	certPath, keyPath := paths(t)
	ips := []net.IP{net.ParseIP("10.10.55.14"), net.ParseIP("10.10.55.14"), net.ParseIP("127.0.0.1")}
	dns := []string{"studio.example.com", "studio.example.com", "localhost"}

	require.NoError(t, GenerateSelfSigned(certPath, keyPath, time.Hour, ips, dns))

	_, err := tls.LoadX509KeyPair(certPath, keyPath)
	require.NoError(t, err)

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cert := loadCertificate(t, certPath)
	var gotIPs []string
	for _, ip := range cert.IPAddresses {
		gotIPs = append(gotIPs, ip.String())
	}
	assert.ElementsMatch(t, []string{"127.0.0.1", "::1", "10.10.55.14"}, gotIPs)
	assert.ElementsMatch(t, []string{"localhost", "studio.example.com"}, cert.DNSNames)
	assert.WithinDuration(t, time.Now().Add(time.Hour), cert.NotAfter, 2*time.Minute)
}

func TestEnsureCertificatesGeneratesOnce(t *testing.T) {
	certPath, keyPath := paths(t)
	cfg := Config{
		CertPath: certPath,
		KeyPath:  keyPath,
		Hosts:    []string{"studio.example.com", "192.0.2.10"},
		Logger:   zerolog.Nop(),
	}

	require.NoError(t, EnsureCertificates(cfg))
	cert := loadCertificate(t, certPath)
	assert.Contains(t, cert.DNSNames, "studio.example.com")
	found := false
	for _, ip := range cert.IPAddresses {
		found = found || ip.Equal(net.ParseIP("192.0.2.10"))
	}
	assert.True(t, found, "host IP is a SAN")

	before, err := os.Stat(certPath)
	require.NoError(t, err)
	require.NoError(t, EnsureCertificates(cfg))
	after, err := os.Stat(certPath)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime(), "valid pair is kept")
}

func TestEnsureCertificatesReplacesIncompletePair(t *testing.T) {
	certPath, keyPath := paths(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(certPath), 0750))
	require.NoError(t, os.WriteFile(certPath, []byte("dummy cert"), 0600))

	require.NoError(t, EnsureCertificates(Config{CertPath: certPath, KeyPath: keyPath, Logger: zerolog.Nop()}))
	_, err := tls.LoadX509KeyPair(certPath, keyPath)
	assert.NoError(t, err)
}

func TestEnsureCertificatesRequiresPaths(t *testing.T) {
	assert.Error(t, EnsureCertificates(Config{Logger: zerolog.Nop()}))
}

func TestNetworkIPs(t *testing.T) {
	ips, err := NetworkIPs()
	require.NoError(t, err)
	for _, ip := range ips {
		assert.False(t, ip.IsLoopback(), ip.String())
		assert.False(t, ip.IsLinkLocalUnicast(), ip.String())
	}
}
