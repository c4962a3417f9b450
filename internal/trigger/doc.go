// Package trigger decides which animation, if any, an incoming event is
// allowed to play. Plain chat commands go through the eligibility
// resolver; bit/sub/tip/host/raid/hype-train/channel-point events match
// through their own alert selectors. The request builder then expands a
// matched animation into play requests for the scheduler.
package trigger
