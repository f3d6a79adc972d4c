// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ld2410

import (
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/ansel1/merry/v2"
)

func deferWrap(err *error) {
	if err != nil && *err != nil {
		*err = merry.WrapSkipping(*err, 1)
	}
}

func logHex(key string, value []byte) slog.Attr {
	return slog.String(key, strings.ToUpper(hex.EncodeToString(value)))
}

func putWord(dst []byte, id uint16, value uint32) {
	dst[0] = byte(id)
	dst[1] = byte(id >> 8)
	dst[2] = byte(value)
	dst[3] = byte(value >> 8)
	dst[4] = byte(value >> 16)
	dst[5] = byte(value >> 24)
}
