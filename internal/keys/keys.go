// Package keys parses Keyline publishable keys and derives instance
// metadata from them.
package keys

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// InstanceType classifies the Keyline instance a key belongs to.
type InstanceType string

const (
	InstanceProduction  InstanceType = "production"
	InstanceDevelopment InstanceType = "development"
	InstanceStaging     InstanceType = "staging"
)

const (
	livePrefix = "pk_live_"
	testPrefix = "pk_test_"
)

var ErrInvalidPublishableKey = errors.New("invalid publishable key")

var devSuffixes = []string{
	".lcl.dev",
	".lclstage.dev",
	".dev.lclkeyline.com",
	".accounts.lclkeyline.com",
	".stg.lclkeyline.com",
}

var stagingSuffixes = []string{
	".stg.dev",
	".stgstage.dev",
	".accountsstage.dev",
}

// PublishableKey is the decoded form of a pk_live_* / pk_test_* key.
type PublishableKey struct {
	Raw          string
	InstanceType InstanceType
	FrontendAPI  string
}

// Parse decodes a publishable key. The payload after the prefix is the
// base64-encoded frontend API host terminated by a "$" marker.
func Parse(raw string) (*PublishableKey, error) {
	instanceType := InstanceProduction
	var encoded string
	switch {
	case strings.HasPrefix(raw, livePrefix):
		encoded = strings.TrimPrefix(raw, livePrefix)
	case strings.HasPrefix(raw, testPrefix):
		instanceType = InstanceDevelopment
		encoded = strings.TrimPrefix(raw, testPrefix)
	default:
		return nil, fmt.Errorf("%w: unknown prefix", ErrInvalidPublishableKey)
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublishableKey, err)
	}
	host := string(decoded)
	if !strings.HasSuffix(host, "$") {
		return nil, fmt.Errorf("%w: missing terminator", ErrInvalidPublishableKey)
	}
	host = strings.TrimSuffix(host, "$")
	if host == "" {
		return nil, fmt.Errorf("%w: empty frontend API", ErrInvalidPublishableKey)
	}

	if hasAnySuffix(host, stagingSuffixes) {
		instanceType = InstanceStaging
	} else if hasAnySuffix(host, devSuffixes) {
		instanceType = InstanceDevelopment
	}

	return &PublishableKey{
		Raw:          raw,
		InstanceType: instanceType,
		FrontendAPI:  host,
	}, nil
}

// APIURLFromKey maps a publishable key to the backend API origin that
// issued it. Unknown or production hosts map to the production API.
func APIURLFromKey(raw string) string {
	pk, err := Parse(raw)
	if err != nil {
		return "https://api.keyline.com"
	}
	if hasAnySuffix(pk.FrontendAPI, devSuffixes) {
		return "https://api.lclkeyline.com"
	}
	if hasAnySuffix(pk.FrontendAPI, stagingSuffixes) {
		return "https://api.keylinestage.dev"
	}
	return "https://api.keyline.com"
}

var schemeRe = regexp.MustCompile(`^.+://`)

// StripScheme removes a leading scheme (https://, http://, ...) from a URL.
func StripScheme(url string) string {
	return schemeRe.ReplaceAllString(url, "")
}

func hasAnySuffix(host string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}
