package benchmarks

import "github.com/sarchlab/difftest/insts"

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each
// benchmark targets one retirement characteristic and exits through the
// halt instruction with its result in $a0.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		functionCalls(),
		branchTaken(),
		mixedOperations(),
		matrixMultiply2x2(),
		loopSimulation(),
	}
}

// GetCoreBenchmarks returns a minimal set of benchmarks for quick
// validation: a loop, matrix multiply and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSimulation(),
		matrixMultiply2x2(),
		branchTaken(),
	}
}

// 1. Arithmetic Sequential - independent ALU operations
func arithmeticSequential() Benchmark {
	prog := make([]uint32, 0, 22)
	for i := 0; i < 20; i++ {
		rd := uint8(12 + i%5)
		prog = append(prog, insts.EncodeADDIW(rd, rd, 1))
	}
	prog = append(prog, insts.EncodeADDIW(4, 12, 0), insts.WordHALT)

	return Benchmark{
		Name:         "arithmetic_sequential",
		Description:  "20 independent addi.w over 5 registers - measures commit throughput",
		Program:      prog,
		ExpectedExit: 4,
	}
}

// 2. Dependency Chain - every instruction reads the previous result
func dependencyChain() Benchmark {
	prog := make([]uint32, 0, 21)
	for i := 0; i < 20; i++ {
		prog = append(prog, insts.EncodeADDIW(4, 4, 1))
	}
	prog = append(prog, insts.WordHALT)

	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent addi.w - no two can retire together",
		Program:      prog,
		ExpectedExit: 20,
	}
}

// 3. Memory Sequential - store/load pairs
func memorySequential() Benchmark {
	prog := []uint32{
		insts.EncodeLU12IW(12, 0x8),
		insts.EncodeADDIW(4, 0, 42),
	}
	for i := int32(0); i < 10; i++ {
		prog = append(prog,
			insts.EncodeStore(insts.OpSTW, 4, 12, 4*i),
			insts.EncodeLoad(insts.OpLDW, 4, 12, 4*i),
		)
	}
	prog = append(prog, insts.WordHALT)

	return Benchmark{
		Name:         "memory_sequential",
		Description:  "10 store/load pairs to sequential words - measures memory latency and checks",
		Program:      prog,
		ExpectedExit: 42,
	}
}

// 4. Function Calls - bl/jirl pairs
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "3 calls to an increment function - measures call/return overhead",
		Program: []uint32{
			insts.EncodeADDIW(4, 0, 0),
			insts.EncodeB(16, true),
			insts.EncodeB(12, true),
			insts.EncodeB(8, true),
			insts.WordHALT,
			insts.EncodeADDIW(4, 4, 1),
			insts.EncodeBranch(insts.OpJIRL, 1, 0, 0),
		},
		ExpectedExit: 3,
	}
}

// 5. Branch Taken - unconditional forward branches
func branchTaken() Benchmark {
	prog := []uint32{insts.EncodeADDIW(4, 0, 0)}
	for i := 0; i < 5; i++ {
		prog = append(prog,
			insts.EncodeB(8, false),
			insts.EncodeADDIW(4, 4, 100),
			insts.EncodeADDIW(4, 4, 1),
		)
	}
	prog = append(prog, insts.WordHALT)

	return Benchmark{
		Name:         "branch_taken",
		Description:  "5 taken branches over dead code - measures redirect penalty",
		Program:      prog,
		ExpectedExit: 5,
	}
}

// 6. Mixed Operations - multiply, divide, shift and subtract
func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "mul.w, div.w, slli.w and sub.w - measures multi-cycle units",
		Program: []uint32{
			insts.EncodeADDIW(12, 0, 7),
			insts.EncodeADDIW(13, 0, 6),
			insts.Encode3R(insts.OpMULW, 14, 12, 13),
			insts.Encode3R(insts.OpDIVW, 15, 14, 12),
			insts.EncodeShiftImm(insts.OpSLLIW, 16, 15, 2),
			insts.Encode3R(insts.OpSUBW, 4, 14, 16),
			insts.WordHALT,
		},
		ExpectedExit: 18,
	}
}

// 7. Matrix Multiply 2x2 - returns the trace of A*B
func matrixMultiply2x2() Benchmark {
	prog := []uint32{insts.EncodeLU12IW(12, 0x8)}

	// A = [[1 2] [3 4]] at 0x8000, B = [[5 6] [7 8]] at 0x8010.
	for i := int32(0); i < 8; i++ {
		prog = append(prog,
			insts.EncodeADDIW(13, 0, i+1),
			insts.EncodeStore(insts.OpSTW, 13, 12, 4*i),
		)
	}

	prog = append(prog,
		// c00 = a00*b00 + a01*b10
		insts.EncodeLoad(insts.OpLDW, 14, 12, 0),
		insts.EncodeLoad(insts.OpLDW, 15, 12, 16),
		insts.Encode3R(insts.OpMULW, 16, 14, 15),
		insts.EncodeLoad(insts.OpLDW, 14, 12, 4),
		insts.EncodeLoad(insts.OpLDW, 15, 12, 24),
		insts.Encode3R(insts.OpMULW, 17, 14, 15),
		insts.Encode3R(insts.OpADDW, 4, 16, 17),
		// c11 = a10*b01 + a11*b11
		insts.EncodeLoad(insts.OpLDW, 14, 12, 8),
		insts.EncodeLoad(insts.OpLDW, 15, 12, 20),
		insts.Encode3R(insts.OpMULW, 16, 14, 15),
		insts.EncodeLoad(insts.OpLDW, 14, 12, 12),
		insts.EncodeLoad(insts.OpLDW, 15, 12, 28),
		insts.Encode3R(insts.OpMULW, 17, 14, 15),
		insts.Encode3R(insts.OpADDW, 16, 16, 17),
		insts.Encode3R(insts.OpADDW, 4, 4, 16),
		insts.WordHALT,
	)

	return Benchmark{
		Name:         "matrix_multiply_2x2",
		Description:  "2x2 integer matrix multiply through memory - returns trace(A*B)",
		Program:      prog,
		ExpectedExit: 69,
	}
}

// 8. Loop Simulation - counted loop with a conditional back edge
func loopSimulation() Benchmark {
	return Benchmark{
		Name:        "loop_simulation",
		Description: "10 iterations of a counted loop - measures taken conditional branches",
		Program: []uint32{
			insts.EncodeADDIW(12, 0, 10),
			insts.EncodeADDIW(4, 0, 0),
			insts.EncodeADDIW(4, 4, 2),
			insts.EncodeADDIW(12, 12, -1),
			insts.EncodeBranch(insts.OpBNE, 12, 0, -8),
			insts.WordHALT,
		},
		ExpectedExit: 20,
	}
}
