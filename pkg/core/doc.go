/*
Package core implements the GlowSphere ledger.

Blocks of signed contract calls are applied one transaction at a time, each
call working on its own storage layer that is only merged into the block
state when the call returns an ok response. Blocks, receipts and the
contract state are stored in the configured key-value store.
*/
package core
