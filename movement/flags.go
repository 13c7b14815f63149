package movement

// Compressed move flags sent with every move.
const (
	FlagJumpPressed   uint8 = 0x01
	FlagWantsToCrouch uint8 = 0x02
	FlagReserved1     uint8 = 0x04
	FlagReserved2     uint8 = 0x08
	// FlagWantsToProne is the first custom flag.
	FlagWantsToProne uint8 = 0x10
)

// CompressedFlags returns the input flags of the actor.
func (c *Character) CompressedFlags() uint8 {
	var flags uint8
	if c.PressedJump {
		flags |= FlagJumpPressed
	}
	if c.WantsToCrouch {
		flags |= FlagWantsToCrouch
	}
	if c.WantsToProne {
		flags |= FlagWantsToProne
	}
	return flags
}

// UpdateFromCompressedFlags applies the input flags received with a move. On the authority a change of the jump
// flag presses or releases jump.
func (c *Character) UpdateFromCompressedFlags(flags uint8) {
	wasPressingJump := c.PressedJump
	c.PressedJump = flags&FlagJumpPressed != 0
	c.WantsToCrouch = flags&FlagWantsToCrouch != 0

	if c.LocalRole == RoleAuthority {
		if c.PressedJump && !wasPressingJump {
			c.Jump()
		} else if !c.PressedJump {
			c.StopJumping()
		}
	}
	c.WantsToProne = flags&FlagWantsToProne != 0
}
