// Package brickfolio implements a tokenized-property ledger and
// reward-accounting engine. It tracks fractional ownership of real-world
// assets, brokers peer-to-peer sale and offer settlements, and computes
// proportional yield and staking rewards over time.
//
// The core functionalities include:
//   - Property Registry: Minting property records with a fixed share supply
//     and maintaining the per-property ownership ledger, where the sum of
//     holder balances always equals the number of issued shares.
//   - Marketplace: Listings and negotiated offers for whole assets or
//     fractional shares, settled atomically against the registry with
//     escrowed offer funds and lazily evaluated expiry.
//   - Yield Distribution: Accumulating external income (such as rent) per
//     property and distributing it to current shareholders proportionally
//     through a lazy reward-per-share accumulator.
//   - Staking: Locking shares into named tiers (duration plus multiplier)
//     to earn amplified rewards from a time-bounded emission schedule.
//   - Data Persistence: Encoding and decoding the operation journal to and
//     from a human-readable, version-controllable JSONL format.
//
// The engine assumes serialized execution: each operation runs to completion
// (or fully fails) before the next begins. Every mutating entry point holds
// a non-reentrant guard for its own duration, and external payouts are
// performed only after all state mutation is complete.
//
// This package serves as the foundational logic for the `bfo` command-line
// tool, ensuring that all operations are consistent and based on a single
// source of truth.
package brickfolio
