package services

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/devenspear/devatar/application/ports/outbound"
)

// Lip-sync vendors have been observed reporting completed jobs whose poll
// response omits the output URL. The probe fetches the provider's raw status
// document and scans an ordered list of known field-name variants for a
// well-formed URL. New vendor response shapes are new list entries, not a
// rewrite.

type urlExtractor struct {
	name string
	path []string
}

var outputURLExtractors = []urlExtractor{
	{name: "output_url", path: []string{"output_url"}},
	{name: "outputUrl", path: []string{"outputUrl"}},
	{name: "video_url", path: []string{"video_url"}},
	{name: "videoUrl", path: []string{"videoUrl"}},
	{name: "url", path: []string{"url"}},
	{name: "result.url", path: []string{"result", "url"}},
	{name: "result.video_url", path: []string{"result", "video_url"}},
	{name: "result.output_url", path: []string{"result", "output_url"}},
	{name: "output.url", path: []string{"output", "url"}},
	{name: "output.video_url", path: []string{"output", "video_url"}},
	{name: "data.url", path: []string{"data", "url"}},
	{name: "data.video_url", path: []string{"data", "video_url"}},
	{name: "outputs[0]", path: []string{"outputs"}},
	{name: "output[0]", path: []string{"output"}},
}

// ExtractOutputURL scans the raw status document with each extractor in
// order and returns the first well-formed URL. Not finding one is not an
// error; only an unparseable document is.
func ExtractOutputURL(raw []byte) (string, bool, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", false, err
	}
	for _, ex := range outputURLExtractors {
		if u, ok := lookupURL(doc, ex.path); ok {
			return u, true, nil
		}
	}
	return "", false, nil
}

func lookupURL(doc map[string]interface{}, path []string) (string, bool) {
	var cur interface{} = doc
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return "", false
		}
		cur, ok = m[key]
		if !ok {
			return "", false
		}
	}
	return urlFromValue(cur)
}

func urlFromValue(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		if wellFormedURL(val) {
			return val, true
		}
	case []interface{}:
		if len(val) == 0 {
			return "", false
		}
		switch first := val[0].(type) {
		case string:
			if wellFormedURL(first) {
				return first, true
			}
		case map[string]interface{}:
			for _, key := range []string{"url", "video_url", "output_url"} {
				if s, ok := first[key].(string); ok && wellFormedURL(s) {
					return s, true
				}
			}
		}
	}
	return "", false
}

func wellFormedURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

type recoveryProbe struct {
	lipSync outbound.LipSyncPort
	logger  outbound.LoggerPort
}

// NewRecoveryProbe wraps a lip-sync adapter's raw status endpoint in the
// URL-recovery scan. Used mid-poll-loop on the completed-without-URL anomaly
// and once more after polling exhaustion.
func NewRecoveryProbe(lipSync outbound.LipSyncPort, logger outbound.LoggerPort) *recoveryProbe {
	return &recoveryProbe{
		lipSync: lipSync,
		logger:  logger,
	}
}

// Probe fetches the job's raw status and tries to recover an output URL.
// Returns found=false rather than an error when no URL is present; errors
// are transport or parse failures only.
func (p *recoveryProbe) Probe(ctx context.Context, jobID string) (string, bool, error) {
	raw, err := p.lipSync.RawStatus(ctx, jobID)
	if err != nil {
		return "", false, err
	}
	recovered, found, err := ExtractOutputURL(raw)
	if err != nil {
		p.logger.ErrorWithFields(err, "recovery probe could not parse raw status", map[string]interface{}{
			"job_id": jobID,
		})
		return "", false, err
	}
	if found {
		p.logger.InfoWithFields("recovery probe found output url", map[string]interface{}{
			"job_id": jobID,
			"url":    recovered,
		})
	}
	return recovered, found, nil
}
