// Package il models method bodies as mutable instruction streams.
//
// Instructions are referenced by pointer. Branch operands, switch tables and
// exception-handler boundaries all hold *Instruction values, so the stream can
// be edited without any offset arithmetic. The editing primitives differ only
// in what happens to references:
//
//   - Prepend/InsertBefore/InsertAfter/Append leave references alone;
//   - Splice gives the anchor's identity to the inserted block, so every jump
//     and region boundary that pointed at the anchor now enters the block;
//   - Remove and Replace move references onto the successor or the substitute.
//
// Validate re-checks a body after edits: targets and boundaries are in the
// body, regions are ordered, and the evaluation stack balances on all paths.
// It also reports the maximum stack depth so callers can refresh MaxStack.
package il
