// SPDX-License-Identifier: MIT

package solution

// defaultSolutions is the built-in recipe catalogue. Placeholders of
// the form ${TOKEN} are bound at build time from the create request or
// template defaults; {instanceId} in node names is substituted with the
// instance UUID.
func defaultSolutions() []Config {
	return []Config{
		{
			SolutionID:   "face_detection_file_default",
			SolutionName: "Face detection (file input)",
			SolutionType: "face_detection",
			IsDefault:    true,
			Pipeline: []NodeSpec{
				{NodeType: "file_src", NodeName: "file_src_{instanceId}",
					Parameters: map[string]string{"FILE_PATH": "${FILE_PATH}"}},
				{NodeType: "face_detector", NodeName: "face_detector_{instanceId}"},
				{NodeType: "tracker", NodeName: "tracker_{instanceId}"},
				{NodeType: "osd", NodeName: "osd_{instanceId}"},
				{NodeType: "file_des", NodeName: "file_des_{instanceId}"},
			},
		},
		{
			SolutionID:   "face_detection_rtsp_default",
			SolutionName: "Face detection (RTSP input)",
			SolutionType: "face_detection",
			IsDefault:    true,
			Pipeline: []NodeSpec{
				{NodeType: "rtsp_src", NodeName: "rtsp_src_{instanceId}",
					Parameters: map[string]string{"RTSP_URL": "${RTSP_URL}"}},
				{NodeType: "face_detector", NodeName: "face_detector_{instanceId}"},
				{NodeType: "tracker", NodeName: "tracker_{instanceId}"},
				{NodeType: "osd", NodeName: "osd_{instanceId}"},
				{NodeType: "rtmp_des", NodeName: "rtmp_des_{instanceId}",
					Parameters: map[string]string{"RTMP_URL": "${RTMP_URL}"}},
			},
		},
		{
			SolutionID:   "object_detection_file_default",
			SolutionName: "Object detection (file input)",
			SolutionType: "object_detection",
			IsDefault:    true,
			Pipeline: []NodeSpec{
				{NodeType: "file_src", NodeName: "file_src_{instanceId}",
					Parameters: map[string]string{"FILE_PATH": "${FILE_PATH}"}},
				{NodeType: "object_detector", NodeName: "object_detector_{instanceId}"},
				{NodeType: "tracker", NodeName: "tracker_{instanceId}"},
				{NodeType: "osd", NodeName: "osd_{instanceId}"},
				{NodeType: "file_des", NodeName: "file_des_{instanceId}"},
			},
		},
		{
			SolutionID:   "object_detection_rtsp_default",
			SolutionName: "Object detection (RTSP input)",
			SolutionType: "object_detection",
			IsDefault:    true,
			Pipeline: []NodeSpec{
				{NodeType: "rtsp_src", NodeName: "rtsp_src_{instanceId}",
					Parameters: map[string]string{"RTSP_URL": "${RTSP_URL}"}},
				{NodeType: "object_detector", NodeName: "object_detector_{instanceId}"},
				{NodeType: "tracker", NodeName: "tracker_{instanceId}"},
				{NodeType: "osd", NodeName: "osd_{instanceId}"},
				{NodeType: "rtmp_des", NodeName: "rtmp_des_{instanceId}",
					Parameters: map[string]string{"RTMP_URL": "${RTMP_URL}"}},
			},
		},
		{
			SolutionID:   "securt_rtsp_default",
			SolutionName: "SecuRT analytics (RTSP input)",
			SolutionType: "securt",
			IsDefault:    true,
			Pipeline: []NodeSpec{
				{NodeType: "rtsp_src", NodeName: "rtsp_src_{instanceId}",
					Parameters: map[string]string{"RTSP_URL": "${RTSP_URL}"}},
				{NodeType: "object_detector", NodeName: "object_detector_{instanceId}"},
				{NodeType: "tracker", NodeName: "tracker_{instanceId}"},
				{NodeType: "crossline_analytics", NodeName: "crossline_{instanceId}"},
				{NodeType: "area_analytics", NodeName: "area_{instanceId}"},
				{NodeType: "osd", NodeName: "osd_{instanceId}"},
				{NodeType: "rtmp_des", NodeName: "rtmp_des_{instanceId}",
					Parameters: map[string]string{"RTMP_URL": "${RTMP_URL}"}},
				{NodeType: "mqtt_broker", NodeName: "mqtt_broker_{instanceId}",
					Parameters: map[string]string{"MQTT_URL": "${MQTT_URL}"}},
			},
		},
		{
			SolutionID:   "ba_crossline_rtsp_default",
			SolutionName: "Crossline behaviour analytics (RTSP input)",
			SolutionType: "ba_crossline",
			IsDefault:    true,
			Pipeline: []NodeSpec{
				{NodeType: "rtsp_src", NodeName: "rtsp_src_{instanceId}",
					Parameters: map[string]string{"RTSP_URL": "${RTSP_URL}"}},
				{NodeType: "object_detector", NodeName: "object_detector_{instanceId}"},
				{NodeType: "tracker", NodeName: "tracker_{instanceId}"},
				{NodeType: "crossline_analytics", NodeName: "crossline_{instanceId}"},
				{NodeType: "osd", NodeName: "osd_{instanceId}"},
				{NodeType: "rtmp_des", NodeName: "rtmp_des_{instanceId}",
					Parameters: map[string]string{"RTMP_URL": "${RTMP_URL}"}},
			},
		},
	}
}
