// Package hart implements the control-plane core of a RISC-V hardware
// thread: the CSR registry, the XLEN/privilege-mode manager, the interrupt
// controller, the trap (exception/interrupt/NMI) engine, the hardware
// trigger (breakpoint) engine, and the Sdext debug-mode state machine.
//
// Instruction decoding, the memory/PMP checker, the floating-point and
// vector data paths, page-table walking, and the CLIC priority picker are
// treated as external collaborators and are consumed through the
// interfaces in collaborators.go.
package hart
