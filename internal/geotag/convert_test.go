package geotag

import (
	"errors"
	"math"
	"testing"
)

func TestConvert(t *testing.T) {
	testCases := []struct {
		name  string
		angle float64
		want  Tag
	}{
		{"zero", 0, Tag{}},
		{"negative zero", math.Copysign(0, -1), Tag{}},
		{"south latitude", -33.946075, Tag{Negative: true, Degrees: 33, Minutes: 56, SecondsTenths: 459}},
		{"north latitude", 51.5, Tag{Degrees: 51, Minutes: 30}},
		{"camera firmware example", 98.58297222, Tag{Degrees: 98, Minutes: 34, SecondsTenths: 587}},
		{"west longitude", -122.4194, Tag{Negative: true, Degrees: 122, Minutes: 25, SecondsTenths: 98}},
		{"antimeridian", 180, Tag{Degrees: 180}},
		{"negative antimeridian", -180, Tag{Negative: true, Degrees: 180}},
		{"south pole", -90, Tag{Negative: true, Degrees: 90}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Convert(tc.angle)
			if err != nil {
				t.Fatalf("Convert(%v) returned error: %v", tc.angle, err)
			}
			if got != tc.want {
				t.Errorf("Convert(%v) = %+v, want %+v", tc.angle, got, tc.want)
			}
		})
	}
}

// Seconds that round up to 60.0 stay in the seconds field
func TestConvert_SecondsRoundToSixty(t *testing.T) {
	angle := 10 + 59.0/60 + 59.96/3600

	got, err := Convert(angle)
	if err != nil {
		t.Fatalf("Convert(%v) returned error: %v", angle, err)
	}

	want := Tag{Degrees: 10, Minutes: 59, SecondsTenths: 600}
	if got != want {
		t.Errorf("Convert(%v) = %+v, want %+v", angle, got, want)
	}
	if got.String() != "10/1,59/1,600/10" {
		t.Errorf("unexpected EXIF text %q", got.String())
	}
}

func TestConvert_SignLaw(t *testing.T) {
	for angle := -180.0; angle <= 180.0; angle += 0.7331 {
		tag, err := Convert(angle)
		if err != nil {
			t.Fatalf("Convert(%v) returned error: %v", angle, err)
		}
		if tag.Negative != (angle < 0) {
			t.Errorf("Convert(%v).Negative = %v", angle, tag.Negative)
		}

		mirrored, err := Convert(-angle)
		if err != nil {
			t.Fatalf("Convert(%v) returned error: %v", -angle, err)
		}
		if mirrored.Degrees != tag.Degrees || mirrored.Minutes != tag.Minutes || mirrored.SecondsTenths != tag.SecondsTenths {
			t.Errorf("Convert(%v) and Convert(%v) differ in magnitude: %+v vs %+v", angle, -angle, tag, mirrored)
		}
	}
}

func TestConvert_Reconstruction(t *testing.T) {
	const tolerance = 1.0 / 36000

	for angle := -180.0; angle <= 180.0; angle += 0.0123457 {
		tag, err := Convert(angle)
		if err != nil {
			t.Fatalf("Convert(%v) returned error: %v", angle, err)
		}
		if tag.Minutes > 59 {
			t.Fatalf("Convert(%v).Minutes = %d, want 0-59", angle, tag.Minutes)
		}
		if tag.SecondsTenths > 600 {
			t.Fatalf("Convert(%v).SecondsTenths = %d, want 0-600", angle, tag.SecondsTenths)
		}
		if diff := math.Abs(tag.Decimal() - math.Abs(angle)); diff > tolerance {
			t.Errorf("Convert(%v) reconstructs to %v (diff %v)", angle, tag.Decimal(), diff)
		}
	}
}

func TestConvert_InvalidInput(t *testing.T) {
	for _, angle := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 180.0001, -400} {
		_, err := Convert(angle)

		var convErr *ConversionError
		if !errors.As(err, &convErr) {
			t.Errorf("Convert(%v) error = %v, want *ConversionError", angle, err)
		}
	}
}

func TestTag_Rationals(t *testing.T) {
	tag := Tag{Degrees: 98, Minutes: 34, SecondsTenths: 587}

	want := [3][2]uint32{{98, 1}, {34, 1}, {587, 10}}
	if got := tag.Rationals(); got != want {
		t.Errorf("Rationals() = %v, want %v", got, want)
	}
	if got := tag.String(); got != "98/1,34/1,587/10" {
		t.Errorf("String() = %q", got)
	}
}

func TestNewMetadata(t *testing.T) {
	testCases := []struct {
		name    string
		lat     float64
		lon     float64
		latRef  string
		lonRef  string
		wantErr bool
	}{
		{"north east", 48.8566, 2.3522, "N", "E", false},
		{"south west", -34.6037, -58.3816, "S", "W", false},
		{"equator meridian", 0, 0, "N", "E", false},
		{"latitude out of range", 91, 0, "", "", true},
		{"longitude out of range", 0, 181, "", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := NewMetadata(tc.lat, tc.lon)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.LatitudeRef != tc.latRef || m.LongitudeRef != tc.lonRef {
				t.Errorf("refs = %s/%s, want %s/%s", m.LatitudeRef, m.LongitudeRef, tc.latRef, tc.lonRef)
			}
		})
	}
}
