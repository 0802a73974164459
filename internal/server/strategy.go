// strategy.go - decides how a validated batch gets transformed before storage.
package server

import "strings"

type strategy int

const (
	// strategyPassthrough uploads every file unmodified.
	strategyPassthrough strategy = iota
	// strategyAnimatedImage resizes a single GIF, all frames.
	strategyAnimatedImage
	// strategyStillImage resizes a single non-GIF image.
	strategyStillImage
	// strategyDocument sends a single PDF to the external compression service.
	strategyDocument
	// strategyArchive zips the whole batch into one file.
	strategyArchive
)

func (s strategy) String() string {
	switch s {
	case strategyPassthrough:
		return "passthrough"
	case strategyAnimatedImage:
		return "animated-image"
	case strategyStillImage:
		return "still-image"
	case strategyDocument:
		return "document"
	case strategyArchive:
		return "archive"
	}
	return "unknown"
}

// selectStrategy implements a strict decision table: exactly one branch
// fires per batch. GIF is checked before the generic image branch so
// animated images never fall into the still-image path. A single file of
// any other type (spreadsheet, existing archive) is archived, so every
// compress-requested upload yields a transformed payload.
func selectStrategy(units []*fileUnit, toCompress bool) strategy {
	if !toCompress {
		return strategyPassthrough
	}
	if len(units) == 1 {
		ct := units[0].ContentType
		switch {
		case ct == "image/gif":
			return strategyAnimatedImage
		case strings.HasPrefix(ct, "image/"):
			return strategyStillImage
		case ct == "application/pdf":
			return strategyDocument
		}
	}
	return strategyArchive
}
