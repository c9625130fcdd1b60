package opbox

// shiftAndLatch clocks all 16 output bits out, bit 0 first, and samples the
// button chain after each of the first 8 rising clock edges. The latch is held low
// for the whole transfer and raised once at the end to commit the outputs.
//
// The first failing pin operation aborts the cycle. Lines already toggled are left
// as they are and ob.state is kept, so the next successful cycle catches up.
func (ob *OpBox) shiftAndLatch() (sample InputSample, err error) {
	if err = ob.latch.SetLow(); err != nil {
		return
	}

	for i, bit := range ob.state {
		if err = ob.clock.SetLow(); err != nil {
			return
		}
		if bit {
			err = ob.dataOut.SetHigh()
		} else {
			err = ob.dataOut.SetLow()
		}
		if err != nil {
			return
		}
		if err = ob.clock.SetHigh(); err != nil {
			return
		}

		// only the first chain has a parallel-in stage
		if i < InputBits {
			if sample[i], err = ob.dataIn.IsHigh(); err != nil {
				return
			}
		}
	}

	err = ob.latch.SetHigh()
	return
}
