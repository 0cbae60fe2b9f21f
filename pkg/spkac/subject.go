package spkac

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"strings"
)

// OIDs for DN attributes (RFC 5280).
var (
	oidCommonName         = asn1.ObjectIdentifier{2, 5, 4, 3}
	oidSerialNumber       = asn1.ObjectIdentifier{2, 5, 4, 5}
	oidCountry            = asn1.ObjectIdentifier{2, 5, 4, 6}
	oidLocality           = asn1.ObjectIdentifier{2, 5, 4, 7}
	oidProvince           = asn1.ObjectIdentifier{2, 5, 4, 8}
	oidOrganization       = asn1.ObjectIdentifier{2, 5, 4, 10}
	oidOrganizationalUnit = asn1.ObjectIdentifier{2, 5, 4, 11}
	oidEmailAddress       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}
)

// subjectAttributes enumerates the recognized short-names, keyed by
// lower-case name. The canonical spelling is what Get/Attributes
// report back.
var subjectAttributes = map[string]struct {
	canonical string
	oid       asn1.ObjectIdentifier
}{
	"cn":           {"CN", oidCommonName},
	"email":        {"Email", oidEmailAddress},
	"o":            {"O", oidOrganization},
	"ou":           {"OU", oidOrganizationalUnit},
	"c":            {"C", oidCountry},
	"l":            {"L", oidLocality},
	"st":           {"ST", oidProvince},
	"serialnumber": {"SerialNumber", oidSerialNumber},
}

// NameAttribute is a single subject attribute: a recognized short-name
// and its string value.
type NameAttribute struct {
	Type  string
	Value string
}

// Name is an ordered mapping from subject attribute short-names (CN,
// Email, O, OU, C, L, ST, SerialNumber) to string values. Values are
// stored verbatim; no semantic validation is performed. A Name is not
// safe for unsynchronized concurrent mutation.
type Name struct {
	attrs []NameAttribute
}

// Set stores value under the given short-name, overwriting in place if
// the attribute is already present so that insertion order is kept.
// Unknown short-names are an error.
func (n *Name) Set(name, value string) error {
	attr, ok := subjectAttributes[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown subject attribute %q", name)
	}
	for i := range n.attrs {
		if n.attrs[i].Type == attr.canonical {
			n.attrs[i].Value = value
			return nil
		}
	}
	n.attrs = append(n.attrs, NameAttribute{Type: attr.canonical, Value: value})
	return nil
}

// Get returns the value stored under the given short-name, or "" if it
// is unset or unrecognized.
func (n *Name) Get(name string) string {
	attr, ok := subjectAttributes[strings.ToLower(name)]
	if !ok {
		return ""
	}
	for _, a := range n.attrs {
		if a.Type == attr.canonical {
			return a.Value
		}
	}
	return ""
}

// Attributes returns the attributes in insertion order.
func (n *Name) Attributes() []NameAttribute {
	return append([]NameAttribute(nil), n.attrs...)
}

// String renders the name as comma-joined Type=Value pairs.
func (n *Name) String() string {
	parts := make([]string, 0, len(n.attrs))
	for _, a := range n.attrs {
		if a.Value != "" {
			parts = append(parts, a.Type+"="+a.Value)
		}
	}
	return strings.Join(parts, ",")
}

// PKIXName converts the container to a pkix.Name for certificate
// assembly. Email is carried as an emailAddress attribute with the
// IA5String encoding RFC 5280 requires for it.
func (n *Name) PKIXName() pkix.Name {
	var name pkix.Name
	for _, a := range n.attrs {
		if a.Value == "" {
			continue
		}
		switch a.Type {
		case "CN":
			name.CommonName = a.Value
		case "O":
			name.Organization = append(name.Organization, a.Value)
		case "OU":
			name.OrganizationalUnit = append(name.OrganizationalUnit, a.Value)
		case "C":
			name.Country = append(name.Country, a.Value)
		case "L":
			name.Locality = append(name.Locality, a.Value)
		case "ST":
			name.Province = append(name.Province, a.Value)
		case "SerialNumber":
			name.SerialNumber = a.Value
		case "Email":
			name.ExtraNames = append(name.ExtraNames, pkix.AttributeTypeAndValue{
				Type: oidEmailAddress,
				Value: asn1.RawValue{
					Class: asn1.ClassUniversal,
					Tag:   asn1.TagIA5String,
					Bytes: []byte(a.Value),
				},
			})
		}
	}
	return name
}

// Subject enumerates the subject attributes that can be supplied at
// construction time. Zero-value fields are left unset.
type Subject struct {
	CommonName         string
	Email              string
	Organization       string
	OrganizationalUnit string
	Country            string
	Locality           string
	Province           string
	SerialNumber       string
}

// apply copies the non-empty fields into a Name, in the attribute
// order recommended by RFC 5280 (C, ST, L, O, OU, CN).
func (s Subject) apply(n *Name) {
	set := func(name, value string) {
		if value != "" {
			// Only recognized names appear here.
			_ = n.Set(name, value)
		}
	}
	set("C", s.Country)
	set("ST", s.Province)
	set("L", s.Locality)
	set("O", s.Organization)
	set("OU", s.OrganizationalUnit)
	set("CN", s.CommonName)
	set("SerialNumber", s.SerialNumber)
	set("Email", s.Email)
}
