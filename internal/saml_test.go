package internal

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

const assertionTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<samlp:Response xmlns:samlp="urn:oasis:names:tc:SAML:2.0:protocol" xmlns:saml="urn:oasis:names:tc:SAML:2.0:assertion">
  <saml:Assertion>
    <saml:AttributeStatement>
%s
    </saml:AttributeStatement>
  </saml:Assertion>
</samlp:Response>`

func roleAttribute(values ...string) string {
	var b strings.Builder
	b.WriteString(`      <saml:Attribute Name="https://aws.amazon.com/SAML/Attributes/Role">` + "\n")
	for _, v := range values {
		fmt.Fprintf(&b, "        <saml:AttributeValue>%s</saml:AttributeValue>\n", v)
	}
	b.WriteString(`      </saml:Attribute>`)
	return b.String()
}

func durationAttribute(value string) string {
	return fmt.Sprintf(`      <saml:Attribute Name="https://aws.amazon.com/SAML/Attributes/SessionDuration">
        <saml:AttributeValue>%s</saml:AttributeValue>
      </saml:Attribute>`, value)
}

func buildAssertion(attributes ...string) []byte {
	return []byte(fmt.Sprintf(assertionTemplate, strings.Join(attributes, "\n")))
}

func TestExtractRolesSingleOffer(t *testing.T) {
	roleARN := "arn:aws:iam::123456789012:role/Developer"
	principalARN := "arn:aws:iam::123456789012:saml-provider/MyIdP"
	doc := buildAssertion(roleAttribute(roleARN + "," + principalARN))

	offers, err := ExtractRoles(doc)
	if err != nil {
		t.Fatalf("ExtractRoles failed: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("Expected 1 offer, got %d", len(offers))
	}
	if offers[0].RoleARN != roleARN {
		t.Errorf("RoleARN mismatch. Got %s, want %s", offers[0].RoleARN, roleARN)
	}
	if offers[0].PrincipalARN != principalARN {
		t.Errorf("PrincipalARN mismatch. Got %s, want %s", offers[0].PrincipalARN, principalARN)
	}
}

func TestExtractRolesMultipleOffersPreserveOrder(t *testing.T) {
	doc := buildAssertion(roleAttribute(
		"arn:aws:iam::111111111111:role/First,arn:aws:iam::111111111111:saml-provider/IdP",
		"arn:aws:iam::222222222222:role/Second,arn:aws:iam::222222222222:saml-provider/IdP",
	))

	offers, err := ExtractRoles(doc)
	if err != nil {
		t.Fatalf("ExtractRoles failed: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("Expected 2 offers, got %d", len(offers))
	}
	if offers[0].RoleARN != "arn:aws:iam::111111111111:role/First" {
		t.Errorf("Offers out of order: first is %s", offers[0].RoleARN)
	}
}

func TestExtractRolesNoRoleAttribute(t *testing.T) {
	doc := buildAssertion(durationAttribute("3600"))

	_, err := ExtractRoles(doc)
	var malformed *MalformedAssertionError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedAssertionError, got %v", err)
	}
}

func TestExtractRolesBadPair(t *testing.T) {
	cases := []string{
		"arn:aws:iam::123456789012:role/OnlyOne",
		"arn:aws:iam::1:role/A,arn:aws:iam::2:saml-provider/B,extra",
		"not-an-arn,arn:aws:iam::123456789012:saml-provider/IdP",
	}
	for _, entry := range cases {
		doc := buildAssertion(roleAttribute(entry))
		_, err := ExtractRoles(doc)
		var malformed *MalformedAssertionError
		if !errors.As(err, &malformed) {
			t.Errorf("Entry %q: expected MalformedAssertionError, got %v", entry, err)
		}
	}
}

func TestExtractRolesNotXML(t *testing.T) {
	_, err := ExtractRoles([]byte("<<<definitely not xml"))
	var malformed *MalformedAssertionError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedAssertionError, got %v", err)
	}
}

func TestExtractDurationPresent(t *testing.T) {
	doc := buildAssertion(
		roleAttribute("arn:aws:iam::123456789012:role/Dev,arn:aws:iam::123456789012:saml-provider/IdP"),
		durationAttribute("3600"),
	)

	seconds, ok, err := ExtractDuration(doc)
	if err != nil {
		t.Fatalf("ExtractDuration failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected duration to be present")
	}
	if seconds != 3600 {
		t.Errorf("Duration mismatch. Got %d, want 3600", seconds)
	}
}

func TestExtractDurationAbsent(t *testing.T) {
	doc := buildAssertion(roleAttribute("arn:aws:iam::123456789012:role/Dev,arn:aws:iam::123456789012:saml-provider/IdP"))

	_, ok, err := ExtractDuration(doc)
	if err != nil {
		t.Fatalf("ExtractDuration failed: %v", err)
	}
	if ok {
		t.Error("Expected no duration attribute")
	}
}

func TestExtractDurationNotANumber(t *testing.T) {
	doc := buildAssertion(durationAttribute("soon"))

	_, _, err := ExtractDuration(doc)
	var malformed *MalformedAssertionError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedAssertionError, got %v", err)
	}
}

func TestParseRoleARN(t *testing.T) {
	account, role, err := ParseRoleARN("arn:aws:iam::123456789012:role/Admin")
	if err != nil {
		t.Fatalf("ParseRoleARN failed: %v", err)
	}
	if account != "123456789012" || role != "Admin" {
		t.Errorf("Got (%s, %s), want (123456789012, Admin)", account, role)
	}

	if _, _, err := ParseRoleARN("arn:aws:iam::12:role/TooShort"); err == nil {
		t.Error("Expected error for short account id")
	}
}

func TestParseChainedRole(t *testing.T) {
	chained, err := ParseChainedRole("arn:aws:iam::999999999999:role/Audit", "ext-1")
	if err != nil {
		t.Fatalf("ParseChainedRole failed: %v", err)
	}
	if chained.AccountID != "999999999999" || chained.RoleName != "Audit" || chained.ExternalID != "ext-1" {
		t.Errorf("Unexpected chained role: %+v", chained)
	}

	bare, err := ParseChainedRole("Audit", "")
	if err != nil {
		t.Fatalf("ParseChainedRole failed for bare name: %v", err)
	}
	if bare.AccountID != "" || bare.RoleName != "Audit" {
		t.Errorf("Unexpected bare chained role: %+v", bare)
	}
	if _, err := bare.ARN(); err == nil {
		t.Error("Expected ARN() to fail while account id is unknown")
	}
}
