package geotag

import (
	"bytes"
	"errors"
	"fmt"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
)

const gpsIfdPath = "IFD/GPSInfo"

// ErrNoGPS is returned by Extract when the image carries no GPS position
var ErrNoGPS = errors.New("geotag: image has no GPS position")

// Embed returns a copy of the JPEG data with an EXIF segment carrying the
// GPS latitude and longitude from m. An existing EXIF segment is replaced.
func Embed(jpegData []byte, m Metadata) ([]byte, error) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("creating IFD mapping: %w", err)
	}

	rootIb := exif.NewIfdBuilder(im, exif.NewTagIndex(), exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)

	gpsIb, err := exif.GetOrCreateIbFromRootIb(rootIb, gpsIfdPath)
	if err != nil {
		return nil, fmt.Errorf("creating GPS IFD: %w", err)
	}

	tags := []struct {
		name  string
		value any
	}{
		{"GPSVersionID", []byte{2, 2, 0, 0}},
		{"GPSLatitudeRef", m.LatitudeRef},
		{"GPSLatitude", toRationals(m.Latitude)},
		{"GPSLongitudeRef", m.LongitudeRef},
		{"GPSLongitude", toRationals(m.Longitude)},
	}
	for _, tag := range tags {
		if err = gpsIb.AddStandardWithName(tag.name, tag.value); err != nil {
			return nil, fmt.Errorf("setting %s: %w", tag.name, err)
		}
	}

	parsed, err := jpegstructure.NewJpegMediaParser().ParseBytes(jpegData)
	if err != nil {
		return nil, fmt.Errorf("parsing JPEG: %w", err)
	}

	sl, ok := parsed.(*jpegstructure.SegmentList)
	if !ok {
		return nil, fmt.Errorf("parsing JPEG: unexpected media context %T", parsed)
	}
	if err = sl.SetExif(rootIb); err != nil {
		return nil, fmt.Errorf("setting EXIF: %w", err)
	}

	var buf bytes.Buffer
	if err = sl.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing JPEG: %w", err)
	}

	return buf.Bytes(), nil
}

// Extract reads the GPS position tags back from JPEG data
func Extract(jpegData []byte) (Metadata, error) {
	rawExif, err := exif.SearchAndExtractExif(jpegData)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return Metadata{}, ErrNoGPS
		}
		return Metadata{}, fmt.Errorf("searching EXIF: %w", err)
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("reading EXIF: %w", err)
	}

	var m Metadata
	var found int
	for _, entry := range entries {
		switch entry.TagName {
		case "GPSLatitudeRef":
			m.LatitudeRef, _ = entry.Value.(string)
			found++
		case "GPSLongitudeRef":
			m.LongitudeRef, _ = entry.Value.(string)
			found++
		case "GPSLatitude":
			m.Latitude = fromRationals(entry.Value)
			found++
		case "GPSLongitude":
			m.Longitude = fromRationals(entry.Value)
			found++
		}
	}
	if found < 4 {
		return Metadata{}, ErrNoGPS
	}

	m.Latitude.Negative = m.LatitudeRef == "S"
	m.Longitude.Negative = m.LongitudeRef == "W"
	return m, nil
}

func toRationals(t Tag) []exifcommon.Rational {
	pairs := t.Rationals()
	values := make([]exifcommon.Rational, len(pairs))
	for i, p := range pairs {
		values[i] = exifcommon.Rational{Numerator: p[0], Denominator: p[1]}
	}
	return values
}

// fromRationals rebuilds a Tag, rescaling seconds to tenths whatever
// denominator the writer used
func fromRationals(v any) Tag {
	values, ok := v.([]exifcommon.Rational)
	if !ok || len(values) != 3 {
		return Tag{}
	}

	var t Tag
	if values[0].Denominator != 0 {
		t.Degrees = values[0].Numerator / values[0].Denominator
	}
	if values[1].Denominator != 0 {
		t.Minutes = values[1].Numerator / values[1].Denominator
	}
	if values[2].Denominator != 0 {
		t.SecondsTenths = values[2].Numerator * 10 / values[2].Denominator
	}
	return t
}
