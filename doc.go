/*
Package renewip asks a home router's ISP to reassign its public IP address and waits until the new address is visible.

Usage will always start with [renewip.New],
which takes an [Oracle] for observing the current public address and a [Trigger] that requests the reassignment.
[Session.Run] captures a baseline address, fires the trigger once,
and then polls the oracle with a [Detector] until the address changes or the attempt budget is used up.
Additional session options are listed in the docs for New.
*/
package renewip
