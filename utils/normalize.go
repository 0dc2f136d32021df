package utils

import (
	"reflect"
	"strings"
)

// NormalizeDTO trims strings and rounds float64 amounts to cents on a
// pointer to a request struct. Fields tagged `normalize:"lower"` are also
// lowercased; `normalize:"-"` leaves a field as sent.
func NormalizeDTO(dto any) {
	walkDTO(dto, false)
}

// NormalizePtrDTO is NormalizeDTO for patch structs: only non-nil pointer
// fields are touched, so absent fields stay absent.
func NormalizePtrDTO(dto any) {
	walkDTO(dto, true)
}

func walkDTO(dto any, ptrOnly bool) {
	v := reflect.ValueOf(dto)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return
	}
	s := v.Elem()
	t := s.Type()
	for i := 0; i < s.NumField(); i++ {
		tag := t.Field(i).Tag.Get("normalize")
		if tag == "-" {
			continue
		}
		f := s.Field(i)
		if ptrOnly {
			if f.Kind() != reflect.Ptr || f.IsNil() {
				continue
			}
			f = f.Elem()
		}
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			str := strings.TrimSpace(f.String())
			if tag == "lower" {
				str = strings.ToLower(str)
			}
			f.SetString(str)
		case reflect.Float64:
			f.SetFloat(Round2(f.Float()))
		}
	}
}
