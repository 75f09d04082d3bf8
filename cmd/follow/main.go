// follow flies a drone after one enrolled face.
//
// Usage:
//
//	follow run --faces ./faces --drone tello
//	follow gallery list --faces ./faces
//	follow lock alice --url http://localhost:8080
package main

func main() {
	Execute()
}
