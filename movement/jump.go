package movement

// Jump presses the jump input. The jump happens on the next movement tick.
func (c *Character) Jump() {
	c.PressedJump = true
	c.JumpKeyHoldTime = 0
}

// StopJumping releases the jump input.
func (c *Character) StopJumping() {
	c.PressedJump = false
	c.ResetJumpState()
}

// ResetJumpState clears the jump input and hold timers. The jump count is only reset when the actor is not
// falling.
func (c *Character) ResetJumpState() {
	c.PressedJump = false
	c.WasJumping = false
	c.JumpKeyHoldTime = 0
	c.JumpForceTimeRemaining = 0
	if !c.IsFalling() {
		c.JumpCurrentCount = 0
		c.JumpCurrentCountPreJump = 0
	}
}

// CanJump reports whether a jump would be allowed now.
func (c *Character) CanJump() bool {
	return !c.Crouched && !c.Proned && c.jumpIsAllowed()
}

func (c *Character) jumpMaxHoldTime() float64 {
	return c.Tuning.JumpMaxHoldTime
}

func (c *Character) jumpIsAllowed() bool {
	if !c.Hooks.CanAttemptJump(c) {
		return false
	}
	maxCount := c.Tuning.JumpMaxCount
	if !c.WasJumping || c.jumpMaxHoldTime() <= 0 {
		if c.JumpCurrentCount == 0 && c.IsFalling() {
			return c.JumpCurrentCount+1 < maxCount
		}
		return c.JumpCurrentCount < maxCount
	}
	// Holding jump extends the current jump as long as the hold time lasts.
	keyHeld := c.PressedJump && c.JumpKeyHoldTime < c.jumpMaxHoldTime()
	return keyHeld && (c.JumpCurrentCount < maxCount || (c.WasJumping && c.JumpCurrentCount == maxCount))
}

// CheckJumpInput performs a jump if the jump input is pressed and a jump is allowed.
func (c *Character) CheckJumpInput(float64) {
	c.JumpCurrentCountPreJump = c.JumpCurrentCount
	if !c.PressedJump {
		return
	}
	if c.JumpCurrentCount == 0 && c.IsFalling() {
		c.JumpCurrentCount++
	}

	didJump := c.CanJump() && c.DoJump()
	if didJump && !c.WasJumping {
		c.JumpCurrentCount++
		c.JumpForceTimeRemaining = c.jumpMaxHoldTime()
		c.handler.HandleJumped(c)
	}
	c.WasJumping = didJump
}

// DoJump launches the actor upwards and switches to falling.
func (c *Character) DoJump() bool {
	if !c.CanJump() {
		return false
	}
	c.Velocity = c.setGravitySpaceZ(c.Velocity, max(c.gravitySpaceZ(c.Velocity), c.Tuning.JumpZVelocity))
	c.SetMovementMode(ModeFalling, CustomNone)
	return true
}

// ClearJumpInput advances the jump hold time, releasing the jump input once the maximum hold time is reached.
func (c *Character) ClearJumpInput(deltaTime float64) {
	if c.PressedJump {
		c.JumpKeyHoldTime += deltaTime
		if c.JumpKeyHoldTime >= c.jumpMaxHoldTime() {
			c.PressedJump = false
		}
		return
	}
	c.JumpForceTimeRemaining = 0
	c.WasJumping = false
}
