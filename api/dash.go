package api

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// mpd is the minimal DASH document subset needed to enumerate media segments.
type mpd struct {
	Periods []struct {
		AdaptationSets []struct {
			Representations []struct {
				SegmentTemplate *segmentTemplate `xml:"SegmentTemplate"`
			} `xml:"Representation"`
			SegmentTemplate *segmentTemplate `xml:"SegmentTemplate"`
		} `xml:"AdaptationSet"`
	} `xml:"Period"`
}

type segmentTemplate struct {
	Initialization string `xml:"initialization,attr"`
	Media          string `xml:"media,attr"`
	StartNumber    int    `xml:"startNumber,attr"`
	Timeline       struct {
		Segments []struct {
			Repeat int `xml:"r,attr"`
		} `xml:"S"`
	} `xml:"SegmentTimeline"`
}

// DRMSegments expands the DASH payload of a DRM manifest into the ordered list
// of segment URLs, initialization segment first.
func (m *Manifest) DRMSegments() ([]string, error) {
	if m.Encryption != EncryptionDRM {
		return nil, errors.New("manifest carries no DASH payload")
	}

	var doc mpd
	if err := xml.Unmarshal(m.Raw, &doc); err != nil {
		return nil, fmt.Errorf("parse DASH manifest: %w", err)
	}

	tmpl := firstTemplate(doc)
	if tmpl == nil {
		return nil, errors.New("DASH manifest carries no segment template")
	}

	count := 0
	for _, s := range tmpl.Timeline.Segments {
		count += s.Repeat + 1
	}
	if count == 0 {
		return nil, errors.New("DASH manifest carries an empty segment timeline")
	}

	start := tmpl.StartNumber
	if start == 0 {
		start = 1
	}

	urls := make([]string, 0, count+1)
	if tmpl.Initialization != "" {
		urls = append(urls, tmpl.Initialization)
	}
	for i := 0; i < count; i++ {
		urls = append(urls, strings.ReplaceAll(tmpl.Media, "$Number$", fmt.Sprint(start+i)))
	}
	return urls, nil
}

func firstTemplate(doc mpd) *segmentTemplate {
	for _, p := range doc.Periods {
		for _, a := range p.AdaptationSets {
			for _, r := range a.Representations {
				if r.SegmentTemplate != nil {
					return r.SegmentTemplate
				}
			}
			if a.SegmentTemplate != nil {
				return a.SegmentTemplate
			}
		}
	}
	return nil
}
