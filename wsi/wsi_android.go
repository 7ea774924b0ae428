// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wsi

func init() {
	register(AndroidStub, connectAndroid)
}

// connectAndroid always fails.
// Android windows are owned by the activity, not created by
// the program, so there is nothing to connect to.
func connectAndroid(*Display) (conn, error) {
	return nil, &selectError{reason: "android backend is not implemented"}
}
