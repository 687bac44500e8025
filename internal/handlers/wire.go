package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/accountsvc/apiserver/types"
)

// Wire keys are camelCase; internal payload keys are snake_case. Both spellings
// are accepted on input, the camelCase one wins when a client sends both.
var wireToInternal = map[string]string{
	"firstName":   "first_name",
	"lastName":    "last_name",
	"areaCode":    "area_code",
	"countryCode": "country_code",
}

const (
	wireTimeLayout   = "2006-01-02T15:04:05"
	wireOffsetLayout = "-0700"
)

// decodeWire reads a JSON body, renames wire keys to their internal names at
// every nesting level, then decodes the result into dst. An empty or null
// body decodes as an empty object.
func decodeWire(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if _, ok := raw.(map[string]any); !ok {
		return errors.New("request body must be a JSON object")
	}

	data, err := json.Marshal(toInternalKeys(raw))
	if err != nil {
		return err
	}
	return json.NewDecoder(bytes.NewReader(data)).Decode(dst)
}

func toInternalKeys(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			if _, isWire := wireToInternal[key]; !isWire {
				out[key] = toInternalKeys(item)
			}
		}
		for key, item := range v {
			if internal, isWire := wireToInternal[key]; isWire {
				out[internal] = toInternalKeys(item)
			}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = toInternalKeys(item)
		}
		return out
	default:
		return value
	}
}

// wireInt accepts a JSON integer or a string holding one.
type wireInt int64

func (n *wireInt) UnmarshalJSON(data []byte) error {
	var v int64
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		v = parsed
	} else if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = wireInt(v)
	return nil
}

// WireTime renders timestamps as 2006-01-02T15:04:05, six microsecond
// digits without a separator, then the numeric zone offset.
type WireTime time.Time

func formatWireTime(t time.Time) string {
	return t.Format(wireTimeLayout) + fmt.Sprintf("%06d", t.Nanosecond()/int(time.Microsecond)) + t.Format(wireOffsetLayout)
}

func (t WireTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(formatWireTime(time.Time(t)))
}

// AccountView is the wire representation of an account. It never carries
// the password hash.
type AccountView struct {
	ID        int         `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	CreatedAt WireTime    `json:"createdAt"`
	LastLogin WireTime    `json:"lastLogin"`
	Phones    []PhoneView `json:"phones"`
}

// PhoneView is the wire representation of a phone.
type PhoneView struct {
	Number      int64  `json:"number"`
	AreaCode    int    `json:"areaCode"`
	CountryCode string `json:"countryCode"`
}

func newAccountView(account types.Account) AccountView {
	phones := make([]PhoneView, 0, len(account.Phones))
	for _, phone := range account.Phones {
		phones = append(phones, PhoneView{
			Number:      phone.Number,
			AreaCode:    phone.AreaCode,
			CountryCode: phone.CountryCode,
		})
	}
	return AccountView{
		ID:        account.ID,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Email:     account.Email,
		CreatedAt: WireTime(account.CreatedAt),
		LastLogin: WireTime(account.LastLogin),
		Phones:    phones,
	}
}
