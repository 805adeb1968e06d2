package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
)

// CertificateInfo summarises a leaf certificate.
type CertificateInfo struct {
	Subject   string
	NotBefore time.Time
	NotAfter  time.Time
	DNSNames  []string
	IPs       []net.IP
}

// ExpiresIn returns the time left until NotAfter.
func (ci CertificateInfo) ExpiresIn() time.Duration {
	return time.Until(ci.NotAfter)
}

// GenerateSelfSigned creates an ECDSA P-256 certificate for hosts. Entries
// that parse as IP addresses become IP SANs.
func GenerateSelfSigned(hosts []string, validFor time.Duration) (tls.Certificate, error) {
	certPEM, keyPEM, err := generatePEM(hosts, validFor)
	if err != nil {
		return tls.Certificate{}, err
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, errors.Wrap(err, "parse generated certificate")
	}
	return cert, nil
}

// WriteSelfSigned generates a certificate and writes the PEM pair. The key
// file is only readable by the owner.
func WriteSelfSigned(hosts []string, validFor time.Duration, certFile, keyFile string) error {
	certPEM, keyPEM, err := generatePEM(hosts, validFor)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(certFile), 0o700); err != nil {
		return errors.Wrap(err, "create certificate directory")
	}
	if err := os.WriteFile(certFile, certPEM, 0o644); err != nil {
		return errors.Wrap(err, "write certificate")
	}
	if err := os.WriteFile(keyFile, keyPEM, 0o600); err != nil {
		return errors.Wrap(err, "write key")
	}
	return nil
}

// Inspect describes the leaf of cert.
func Inspect(cert tls.Certificate) (CertificateInfo, error) {
	if len(cert.Certificate) == 0 {
		return CertificateInfo{}, errors.New("empty certificate")
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return CertificateInfo{}, errors.Wrap(err, "parse certificate")
	}
	return CertificateInfo{
		Subject:   leaf.Subject.String(),
		NotBefore: leaf.NotBefore,
		NotAfter:  leaf.NotAfter,
		DNSNames:  leaf.DNSNames,
		IPs:       leaf.IPAddresses,
	}, nil
}

func generatePEM(hosts []string, validFor time.Duration) (certPEM, keyPEM []byte, err error) {
	if validFor <= 0 {
		validFor = DefaultConfig().ValidFor
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, errors.Wrap(err, "generate key")
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, errors.Wrap(err, "generate serial number")
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"socialgraph"},
			CommonName:   "socialgraph server",
		},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(validFor),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create certificate")
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, nil, errors.Wrap(err, "marshal key")
	}
	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM, nil
}
