// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the sync daemon runtime.
//
// It wires client services, the periodic sync job and process signals into a
// single process lifecycle: SIGUSR1 forces a sync, SIGINT and SIGTERM stop
// the daemon after the running attempt has finished.
package client
