package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/foomo/ophelia-mcp/service/vo"
	"github.com/spf13/cast"
)

// record is a decoded backend object with unknown field naming.
type record map[string]any

// Source key spellings per destination field. The backend has used both
// snake_case and Go field names across versions; the first present key with a
// usable value wins, so snake_case is listed first.
var (
	keysID              = []string{"id", "ID"}
	keysTitle           = []string{"title", "Title"}
	keysBackgroundURL   = []string{"background_url", "BackgroundURL"}
	keysAvatarURL       = []string{"avatar_url", "AvatarURL"}
	keysHomeDescription = []string{"home_description", "HomeDescription"}
	keysAboutText       = []string{"about_text", "AboutText"}
	keysContactEmail    = []string{"contact_email", "ContactEmail"}
	keysContactPhone    = []string{"contact_phone", "ContactPhone"}
	keysContactLocation = []string{"contact_location", "ContactLocation"}

	keysContent   = []string{"content", "Content"}
	keysMediaPath = []string{"media_path", "MediaPath"}
	keysCreatedAt = []string{"created_at", "CreatedAt"}
	keysIsHidden  = []string{"is_hidden", "IsHidden"}

	keysText     = []string{"text", "Text"}
	keysImageURL = []string{"image_url", "ImageURL"}
	keysPostURL  = []string{"post_url", "PostURL"}

	keysDescription         = []string{"description", "Description"}
	keysDate                = []string{"date", "Date"}
	keysTime                = []string{"time", "Time"}
	keysLocation            = []string{"location", "Location"}
	keysMaxParticipants     = []string{"max_participants", "MaxParticipants"}
	keysCurrentParticipants = []string{"current_participants", "CurrentParticipants"}

	keysShortDescription = []string{"short_description", "ShortDescription"}
	keysDetailedContent  = []string{"detailed_content", "DetailedContent"}
	keysMediaURL         = []string{"media_url", "MediaURL"}

	keysName      = []string{"name", "Name"}
	keysBiography = []string{"biography", "Biography"}
	keysPhotoURL  = []string{"photo_url", "PhotoURL"}
	keysCentury   = []string{"century", "Century"}
	keysSpheres   = []string{"spheres", "Spheres"}

	keysItems  = []string{"items", "Items"}
	keysLimit  = []string{"limit", "Limit"}
	keysOffset = []string{"offset", "Offset"}
	keysTotal  = []string{"total", "Total"}

	keysOK    = []string{"ok", "OK"}
	keysError = []string{"error", "Error", "message"}
)

func normalizeSiteSettings(item record) vo.SiteSettings {
	return vo.SiteSettings{
		ID:              pickString(item, keysID),
		BackgroundURL:   pickString(item, keysBackgroundURL),
		AvatarURL:       pickString(item, keysAvatarURL),
		HomeDescription: pickString(item, keysHomeDescription),
		AboutText:       pickString(item, keysAboutText),
		ContactEmail:    pickString(item, keysContactEmail),
		ContactPhone:    pickString(item, keysContactPhone),
		ContactLocation: pickString(item, keysContactLocation),
	}
}

func normalizePost(item record) vo.Post {
	return vo.Post{
		ID:        pickString(item, keysID),
		Title:     pickString(item, keysTitle),
		Content:   pickString(item, keysContent),
		MediaPath: pickString(item, keysMediaPath),
		CreatedAt: pickString(item, keysCreatedAt),
		IsHidden:  pickBool(item, keysIsHidden),
	}
}

func normalizeNewsPost(item record) vo.NewsPost {
	return vo.NewsPost{
		ID:       pickString(item, keysID),
		Text:     pickString(item, keysText),
		ImageURL: pickString(item, keysImageURL),
		PostURL:  pickString(item, keysPostURL),
	}
}

func normalizeEvent(item record) vo.Event {
	return vo.Event{
		ID:                  pickString(item, keysID),
		Title:               pickString(item, keysTitle),
		Description:         pickString(item, keysDescription),
		Date:                pickString(item, keysDate),
		Time:                pickString(item, keysTime),
		Location:            pickString(item, keysLocation),
		MediaPath:           pickString(item, keysMediaPath),
		MaxParticipants:     max(0, pickInt(item, keysMaxParticipants)),
		CurrentParticipants: pickInt64Slice(item, keysCurrentParticipants),
	}
}

func normalizeProject(item record) vo.Project {
	return vo.Project{
		ID:               pickString(item, keysID),
		Title:            pickString(item, keysTitle),
		ShortDescription: pickString(item, keysShortDescription),
		DetailedContent:  pickString(item, keysDetailedContent),
		MediaURL:         pickString(item, keysMediaURL),
	}
}

func normalizeWoman(item record) vo.Woman {
	return vo.Woman{
		ID:        pickInt(item, keysID),
		Name:      pickString(item, keysName),
		Biography: pickString(item, keysBiography),
		PhotoURL:  pickString(item, keysPhotoURL),
		Century:   pickString(item, keysCentury),
		Spheres:   pickStringSlice(item, keysSpheres),
	}
}

// normalizeWomenPage falls back to the requested limit and offset when the
// envelope does not echo them.
func normalizeWomenPage(item record, limit, offset int) vo.WomenPage {
	page := vo.WomenPage{
		Items:  []vo.Woman{},
		Limit:  limit,
		Offset: offset,
		Total:  pickInt(item, keysTotal),
	}
	if v, ok := pickOptionalNumber(item, keysLimit); ok {
		page.Limit = toInt(v)
	}
	if v, ok := pickOptionalNumber(item, keysOffset); ok {
		page.Offset = toInt(v)
	}
	for _, key := range keysItems {
		entries, ok := item[key].([]any)
		if !ok {
			continue
		}
		for _, entry := range entries {
			page.Items = append(page.Items, normalizeWoman(asRecord(entry)))
		}
		break
	}
	return page
}

func normalizeRegistration(item record, eventID string) vo.Registration {
	return vo.Registration{
		OK:      pickBool(item, keysOK),
		EventID: eventID,
	}
}

// asRecord treats anything that is not an object as an empty one.
func asRecord(v any) record {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return record{}
}

func pickString(item record, keys []string) string {
	for _, key := range keys {
		if s, ok := item[key].(string); ok {
			return s
		}
	}
	return ""
}

func pickInt(item record, keys []string) int {
	v, _ := pickOptionalNumber(item, keys)
	return toInt(v)
}

func pickOptionalNumber(item record, keys []string) (float64, bool) {
	for _, key := range keys {
		if f, ok := toNumber(item[key]); ok {
			return f, true
		}
	}
	return 0, false
}

func pickBool(item record, keys []string) bool {
	for _, key := range keys {
		if b, ok := toBool(item[key]); ok {
			return b
		}
	}
	return false
}

func pickInt64Slice(item record, keys []string) []int64 {
	for _, key := range keys {
		values, ok := item[key].([]any)
		if !ok {
			continue
		}
		ret := make([]int64, 0, len(values))
		for _, value := range values {
			if n, ok := toInt64(value); ok {
				ret = append(ret, n)
			}
		}
		return ret
	}
	return []int64{}
}

func pickStringSlice(item record, keys []string) []string {
	for _, key := range keys {
		values, ok := item[key].([]any)
		if !ok {
			continue
		}
		ret := make([]string, 0, len(values))
		for _, value := range values {
			s, ok := value.(string)
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				ret = append(ret, s)
			}
		}
		return ret
	}
	return []string{}
}

// toNumber accepts numeric values and numeric strings; everything else,
// including NaN and infinities, is rejected.
func toNumber(v any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch value := v.(type) {
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return 0, false
		}
		f, err = cast.ToFloat64E(trimmed)
	case json.Number, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		f, err = cast.ToFloat64E(value)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toInt64 prefers exact integer parsing so large ids keep full precision;
// fractions are truncated and values outside the int64 range are rejected.
func toInt64(v any) (int64, bool) {
	var text string
	switch value := v.(type) {
	case int64:
		return value, true
	case json.Number:
		text = value.String()
	case string:
		text = strings.TrimSpace(value)
	}
	if text != "" {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, true
		}
	}
	f, ok := toNumber(v)
	if !ok || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toBool(v any) (bool, bool) {
	switch value := v.(type) {
	case bool:
		return value, true
	case string:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
		return false, false
	default:
		f, ok := toNumber(v)
		if !ok {
			return false, false
		}
		return f != 0, true
	}
}

func toInt(f float64) int {
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}
