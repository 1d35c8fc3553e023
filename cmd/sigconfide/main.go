// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import "github.com/marcin119a/sigconfide"

func main() {
	sigconfide.Main()
}
