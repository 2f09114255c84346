package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

var (
	ErrUnknownKey = errors.New("unknown key")
	ErrTableKey   = errors.New("key holds a list of tables")
	ErrNoValue    = errors.New("no value given")
)

// Lookup returns the registered field of name.
// An unknown name is reported together with the closest registered key.
func Lookup(name string) (Field, error) {
	if field, ok := Default[name]; ok {
		return field, nil
	}

	closest := lo.MinBy(lo.Keys(Default), func(a, b string) bool {
		return levenshtein.Distance(name, a) < levenshtein.Distance(name, b)
	})

	return Field{}, fmt.Errorf("%w %s, did you mean %s?", ErrUnknownKey, name, closest)
}

// Fields returns the named fields, or every field when no name is given, sorted by key.
func Fields(names ...string) ([]Field, error) {
	fields := lo.Values(Default)

	if len(names) > 0 {
		fields = make([]Field, 0, len(names))
		for _, name := range names {
			field, err := Lookup(name)
			if err != nil {
				return nil, err
			}
			fields = append(fields, field)
		}
	}

	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Key < fields[j].Key
	})

	return fields, nil
}

// Parse converts command line words into a value of the field's type.
// Site tables cannot be expressed that way and must be edited in the file.
func (f *Field) Parse(raw []string) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoValue, f.Key)
	}

	switch f.Value.(type) {
	case string:
		return raw[0], nil
	case int:
		n, err := strconv.Atoi(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid integer value for %s: %s", f.Key, raw[0])
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid boolean value for %s: %s", f.Key, raw[0])
		}
		return b, nil
	case time.Duration:
		d, err := time.ParseDuration(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid duration value for %s: %s", f.Key, raw[0])
		}
		return d, nil
	case []string:
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: edit %s under %s", ErrTableKey, Path(), f.Key)
	}
}

// Set parses raw for name, applies it and saves the file.
func Set(name string, raw []string) (any, error) {
	field, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	value, err := field.Parse(raw)
	if err != nil {
		return nil, err
	}

	viper.Set(name, value)
	return value, Save()
}

// Reset restores the named keys, or every key when none is given, and saves the file.
func Reset(names ...string) error {
	fields, err := Fields(names...)
	if err != nil {
		return err
	}

	for _, field := range fields {
		viper.Set(field.Key, field.Value)
	}

	return Save()
}

// Save writes the current settings to Path(), creating the file when it does not exist yet.
func Save() error {
	err := viper.WriteConfig()

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return viper.SafeWriteConfig()
	}

	return err
}
