// Package publish drives a rendered clip through each platform's remote
// publish flow.
//
// Machine runs one platform through RateCheck, Create, Upload,
// ProcessingPoll, Publish, Notify and CountIncrement and always ends in
// exactly one terminal Outcome. Dispatcher fans a clip out to every platform
// the target account has configured and collects a Report; a failure on one
// platform never stops the others.
//
// Platform HTTP clients live in the youtube, facebook and instagram
// subpackages and satisfy the Publisher interface.
package publish
