package web

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"time"
)

// CertValidity is how long generated certificates last. Browsers only accept
// serverCertificateHashes for certificates valid less than 14 days.
const CertValidity = 10 * 24 * time.Hour

// CertInfo holds generated certificate information.
type CertInfo struct {
	TLSConfig *tls.Config
	DER       []byte   // DER-encoded certificate
	Hash      [32]byte // SHA-256 hash for serverCertificateHashes
	NotAfter  time.Time
}

// GenerateSelfSignedCert creates an ECDSA P-256 certificate for host, which
// may be a DNS name or an IP. Loopback addresses are always included.
func GenerateSelfSignedCert(host string) (*CertInfo, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, fmt.Errorf("generate serial: %w", err)
	}

	// Backdate slightly so clock skew between browser and server is harmless.
	notBefore := time.Now().Add(-time.Minute)
	notAfter := notBefore.Add(CertValidity)

	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "livepane preview"},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:              []string{"localhost"},
	}
	if ip := net.ParseIP(host); ip != nil {
		template.IPAddresses = append(template.IPAddresses, ip)
	} else if host != "" && host != "localhost" {
		template.DNSNames = append(template.DNSNames, host)
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}

	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}

	return &CertInfo{
		TLSConfig: &tls.Config{
			Certificates: []tls.Certificate{{
				Certificate: [][]byte{der},
				PrivateKey:  priv,
				Leaf:        leaf,
			}},
			MinVersion: tls.VersionTLS13,
			NextProtos: []string{"h3"},
		},
		DER:      der,
		Hash:     sha256.Sum256(der),
		NotAfter: notAfter,
	}, nil
}
