package internal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	roleAttributeName     = "https://aws.amazon.com/SAML/Attributes/Role"
	durationAttributeName = "https://aws.amazon.com/SAML/Attributes/SessionDuration"
)

// ExtractRoles returns the role offers carried by a SAML assertion, in
// document order. An assertion with no role attribute, or with an offer
// that is not exactly two well-formed IAM ARNs separated by a comma, is
// malformed.
func ExtractRoles(assertion []byte) ([]RoleOffer, error) {
	values, err := attributeValues(assertion, roleAttributeName)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, &MalformedAssertionError{Reason: "no role attribute present"}
	}

	offers := make([]RoleOffer, 0, len(values))
	for _, v := range values {
		parts := strings.Split(strings.TrimSpace(v), ",")
		if len(parts) != 2 {
			return nil, &MalformedAssertionError{Reason: fmt.Sprintf("role entry %q is not a role,principal pair", v)}
		}
		roleARN := strings.TrimSpace(parts[0])
		principalARN := strings.TrimSpace(parts[1])
		if !strings.HasPrefix(roleARN, "arn:aws:iam::") || !strings.HasPrefix(principalARN, "arn:aws:iam::") {
			return nil, &MalformedAssertionError{Reason: fmt.Sprintf("role entry %q does not contain two IAM ARNs", v)}
		}
		offers = append(offers, RoleOffer{RoleARN: roleARN, PrincipalARN: principalARN})
	}
	return offers, nil
}

// ExtractDuration returns the assertion's requested session duration in
// seconds. ok is false when the assertion carries no duration attribute,
// which is not an error.
func ExtractDuration(assertion []byte) (seconds int32, ok bool, err error) {
	values, err := attributeValues(assertion, durationAttributeName)
	if err != nil {
		return 0, false, err
	}
	if len(values) == 0 {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(values[0]), 10, 32)
	if err != nil || n <= 0 {
		return 0, false, &MalformedAssertionError{Reason: fmt.Sprintf("session duration %q is not a positive integer", values[0])}
	}
	return int32(n), true, nil
}

// attributeValues walks the assertion for the AttributeValue children of
// the named SAML attribute. Namespace prefixes vary by IdP, so elements
// are matched by local name.
func attributeValues(assertion []byte, name string) ([]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(assertion); err != nil {
		return nil, &MalformedAssertionError{Reason: "not well-formed XML"}
	}

	assertionEl := findByLocalName(&doc.Element, "Assertion")
	if assertionEl == nil {
		return nil, &MalformedAssertionError{Reason: "no Assertion element"}
	}

	var values []string
	for _, attr := range collectByLocalName(assertionEl, "Attribute") {
		if attr.SelectAttrValue("Name", "") != name {
			continue
		}
		for _, val := range collectByLocalName(attr, "AttributeValue") {
			values = append(values, val.Text())
		}
	}
	return values, nil
}

func findByLocalName(el *etree.Element, local string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == local {
			return child
		}
		if found := findByLocalName(child, local); found != nil {
			return found
		}
	}
	return nil
}

func collectByLocalName(el *etree.Element, local string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == local {
			out = append(out, child)
		}
		out = append(out, collectByLocalName(child, local)...)
	}
	return out
}
